// Package locator derives element selectors from an ElementInfo probe.
// It is pure (no chromedp, no DOM access) so both the BrowserExecutor
// (deriving a selector to store on a RecordedStep) and the ScriptBuilder
// (emitting a Playwright-style locator call) can share one
// implementation of the priority rules in spec §3 and §4.4, rather than
// duplicating them in Go and in the generated script's JavaScript.
package locator

import (
	"fmt"
	"strings"

	"github.com/JustGoscha/zentest/internal/types"
)

// genericTags can never be used as a bare raw-selector fallback; they
// carry no identifying information on their own.
var genericTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"div": true, "span": true, "a": true, "button": true, "input": true, "textarea": true,
	"label": true, "form": true, "section": true, "article": true, "header": true,
	"footer": true, "nav": true, "main": true, "aside": true,
}

const maxClasses = 2

// DeriveSelector builds the best-effort CSS-ish selector stored on
// ElementInfo.Selector, per spec §3's priority order: data-testid >
// #id > [role][aria-label] > tag:has-text(text) for button/anchor with
// short text > tag.class1.class2 > tag.
func DeriveSelector(info *types.ElementInfo) string {
	if info == nil {
		return ""
	}
	if info.TestID != "" {
		return fmt.Sprintf(`[data-testid="%s"]`, info.TestID)
	}
	if info.ID != "" {
		return "#" + info.ID
	}
	if info.Role != "" && info.AriaLabel != "" {
		return fmt.Sprintf(`[role="%s"][aria-label="%s"]`, info.Role, info.AriaLabel)
	}
	if (info.Tag == "button" || info.Tag == "a") && info.Text != "" && len(info.Text) <= 40 {
		return fmt.Sprintf(`%s:has-text("%s")`, info.Tag, info.Text)
	}
	if info.Class != "" {
		classes := strings.Fields(info.Class)
		if len(classes) > maxClasses {
			classes = classes[:maxClasses]
		}
		if len(classes) > 0 {
			return info.Tag + "." + strings.Join(classes, ".")
		}
	}
	return info.Tag
}

// PlaywrightLocator is a fragment of script-generator output: a
// chained-call locator expression plus whether one could be derived at
// all. Inputs and buttons never fall back to a raw tag selector (ok is
// false instead), forcing the caller onto a coordinate fallback.
type PlaywrightLocator struct {
	Expr string
	OK   bool
}

// BuildPlaywrightLocator implements spec §4.4's priority order:
// data-testid > role+accessible-name > label > placeholder >
// getByText(text, exact=true) > #id > raw selector iff non-generic.
func BuildPlaywrightLocator(info *types.ElementInfo) PlaywrightLocator {
	if info == nil {
		return PlaywrightLocator{}
	}

	if info.TestID != "" {
		return PlaywrightLocator{Expr: fmt.Sprintf(`page.locator('[data-testid="%s"]')`, escape(info.TestID)), OK: true}
	}

	if name := accessibleName(info); name != "" {
		role := info.Role
		if role == "" && isTextInput(info.Tag) {
			role = "textbox"
		}
		if role != "" {
			return PlaywrightLocator{
				Expr: fmt.Sprintf(`page.getByRole('%s', { name: '%s', exact: true })`, role, escape(name)),
				OK:   true,
			}
		}
	}

	if info.Label != "" {
		return PlaywrightLocator{Expr: fmt.Sprintf(`page.getByLabel('%s')`, escape(info.Label)), OK: true}
	}

	if info.Placeholder != "" {
		return PlaywrightLocator{Expr: fmt.Sprintf(`page.getByPlaceholder('%s')`, escape(info.Placeholder)), OK: true}
	}

	if info.Text != "" {
		return PlaywrightLocator{Expr: fmt.Sprintf(`page.getByText('%s', { exact: true })`, escape(info.Text)), OK: true}
	}

	if info.ID != "" {
		return PlaywrightLocator{Expr: fmt.Sprintf(`page.locator('#%s')`, escape(info.ID)), OK: true}
	}

	if isNeverRaw(info.Tag) || genericTags[info.Tag] {
		return PlaywrightLocator{}
	}

	if sel := DeriveSelector(info); sel != "" {
		return PlaywrightLocator{Expr: fmt.Sprintf(`page.locator('%s')`, escape(sel)), OK: true}
	}

	return PlaywrightLocator{}
}

// accessibleName follows spec §3/§4.4: ariaLabel, else associated-label
// text, else name (not modeled on ElementInfo beyond Label), else
// placeholder.
func accessibleName(info *types.ElementInfo) string {
	if info.AriaLabel != "" {
		return info.AriaLabel
	}
	if info.Label != "" {
		return info.Label
	}
	if info.Placeholder != "" {
		return info.Placeholder
	}
	return ""
}

func isTextInput(tag string) bool {
	return tag == "input" || tag == "textarea"
}

// isNeverRaw reports whether elementInfo.Tag belongs to a class of
// elements the Builder refuses to address by a bare/generic raw
// selector (spec §4.4): inputs and buttons must resolve to a locator()
// null rather than a brittle tag selector.
func isNeverRaw(tag string) bool {
	return tag == "input" || tag == "button" || tag == "textarea" || tag == "select"
}

// escape applies spec §4.4's string-escaping rule for emitted script
// literals: backslash, single quote, newline, carriage return, tab.
func escape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return r.Replace(s)
}
