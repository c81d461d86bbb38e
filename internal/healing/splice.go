package healing

import (
	"fmt"
	"strings"
)

// SpliceTestBody replaces the body of the named test's async function in a
// generated script with newBody, leaving the rest of the file untouched.
// It locates the test by an exact match on the quoted test-name literal
// (the same single-quoting ScriptBuilder emits) and then brace-balances
// from the function's opening "=> {" to find its matching close, rather
// than anchoring on indentation or a line-oriented regex (spec §9: the
// regex approach was flagged as fragile).
//
// It does not understand JS string/template literals, so a test body
// containing an unbalanced brace inside a string would confuse it; this
// is an accepted limitation given the generator never emits such bodies.
func SpliceTestBody(script, testName, newBody string) (string, error) {
	declStart := strings.Index(script, "test("+quoteLiteral(testName)+",")
	if declStart < 0 {
		return "", fmt.Errorf("splice: test %q not found in script", testName)
	}

	arrowMarker := "=> {"
	arrowIdx := strings.Index(script[declStart:], arrowMarker)
	if arrowIdx < 0 {
		return "", fmt.Errorf("splice: test %q has no async function body", testName)
	}
	bodyOpen := declStart + arrowIdx + len(arrowMarker) - 1 // index of the '{'

	bodyClose, err := matchingBrace(script, bodyOpen)
	if err != nil {
		return "", fmt.Errorf("splice: test %q: %w", testName, err)
	}

	trimmed := strings.TrimRight(newBody, "\n")
	var rendered strings.Builder
	rendered.WriteString("\n")
	for _, line := range strings.Split(trimmed, "\n") {
		rendered.WriteString("    ")
		rendered.WriteString(line)
		rendered.WriteString("\n")
	}
	rendered.WriteString("  ")

	return script[:bodyOpen+1] + rendered.String() + script[bodyClose:], nil
}

// matchingBrace returns the index of the '}' matching the '{' at open.
func matchingBrace(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("unbalanced braces")
}

// quoteLiteral mirrors scriptbuilder's single-quote escaping exactly, so a
// test name containing a quote or backslash still matches the declaration
// ScriptBuilder originally emitted.
func quoteLiteral(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return "'" + r.Replace(s) + "'"
}
