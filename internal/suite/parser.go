// Package suite parses markdown test-source files into types.TestSuite
// values: a `#` heading names the suite, each `##` heading starts a test
// whose body (up to the next `##`) is its description.
package suite

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JustGoscha/zentest/internal/types"
)

// ParseFile reads path and parses it as a suite markdown file, defaulting
// the suite name to the file's stem if no `#` heading is present.
func ParseFile(path string) (types.TestSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.TestSuite{}, fmt.Errorf("read suite file %s: %w", path, err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(stem, data), nil
}

// Parse parses content per the suite markdown grammar: the first `#`
// heading (if any) names the suite, each `##` heading opens a test, and
// the lines up to the next `##` heading become that test's trimmed
// description. Tests with an empty description are dropped.
func Parse(defaultName string, content []byte) types.TestSuite {
	suiteName := defaultName
	named := false
	var tests []types.Test

	var currentName string
	var body strings.Builder
	haveTest := false

	flush := func() {
		if !haveTest {
			return
		}
		desc := strings.TrimSpace(body.String())
		if desc != "" {
			tests = append(tests, types.Test{Name: currentName, Description: desc})
		}
		body.Reset()
		haveTest = false
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "## "):
			flush()
			currentName = strings.TrimSpace(strings.TrimPrefix(line, "## "))
			haveTest = true
		case strings.HasPrefix(line, "# "):
			if !named {
				suiteName = strings.TrimSpace(strings.TrimPrefix(line, "# "))
				named = true
			}
		default:
			if haveTest {
				body.WriteString(line)
				body.WriteString("\n")
			}
		}
	}
	flush()

	return types.TestSuite{Name: suiteName, Tests: tests}
}
