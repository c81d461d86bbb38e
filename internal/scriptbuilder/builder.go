// Package scriptbuilder turns a successful test run's recorded steps into
// two on-disk artifacts: a deterministic Playwright script a human (or a
// CI job) can run without the model, and a sidecar JSON file preserving the
// raw steps so the Replayer and HealingOrchestrator can fast-forward or
// patch a test later.
package scriptbuilder

import (
	"fmt"
	"strings"

	"github.com/JustGoscha/zentest/internal/locator"
	"github.com/JustGoscha/zentest/internal/types"
)

// TestResult is one successfully completed test, ready to be rendered.
type TestResult struct {
	Test  types.Test
	Steps []types.RecordedStep
}

// Build renders a full suite script: one describe block named after the
// suite, one test block per TestResult in order, the first test navigating
// to baseURL. Consecutive identical assertions are deduplicated per spec
// §4.4; unsupported actions (done, mouse_move, ...) emit nothing, and drag
// emits only a "not replayable" comment line.
func Build(suiteName, baseURL string, results []TestResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "import { test, expect } from '@playwright/test';\n\n")
	b.WriteString(fillFieldHelper)
	b.WriteString("\n")
	fmt.Fprintf(&b, "test.describe.serial(%s, () => {\n", quote(suiteName))

	for i, r := range results {
		fmt.Fprintf(&b, "  test(%s, async ({ page }) => {\n", quote(r.Test.Name))
		if i == 0 {
			fmt.Fprintf(&b, "    await page.goto(%s);\n", quote(baseURL))
		}
		writeSteps(&b, r.Steps)
		b.WriteString("  });\n")
		if i < len(results)-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("});\n")
	return b.String()
}

// writeSteps renders one test body, deduplicating consecutive identical
// assertions as they are emitted.
func writeSteps(b *strings.Builder, steps []types.RecordedStep) {
	var lastAssert string
	for _, step := range steps {
		line := renderStep(step)
		if line == "" {
			continue
		}
		isAssert := step.Action.Type == types.ActionAssertText || step.Action.Type == types.ActionAssertNotText
		if isAssert && line == lastAssert {
			continue
		}
		if step.Reasoning != "" {
			fmt.Fprintf(b, "    // %s\n", oneLine(step.Reasoning))
		}
		fmt.Fprintf(b, "    %s\n", line)
		if isAssert {
			lastAssert = line
		} else {
			lastAssert = ""
		}
	}
}

// renderStep implements spec §4.4's translation table for one action. The
// generated expression becomes both the script line and RecordedStep's
// GeneratedCode field once the caller assigns it back.
func renderStep(step types.RecordedStep) string {
	a := step.Action
	switch a.Type {
	case types.ActionClick:
		if loc := locator.BuildPlaywrightLocator(step.ElementInfo); loc.OK {
			return loc.Expr + ".click();"
		}
		return fmt.Sprintf("await page.mouse.click(%d, %d);", a.X, a.Y)

	case types.ActionClickButton:
		return fmt.Sprintf(
			"await page.getByRole('button', { name: %s, exact: %t }).click();",
			quote(a.Name), a.Exact,
		)

	case types.ActionClickText:
		if a.Exact {
			return fmt.Sprintf("await page.getByText(%s, { exact: true }).click();", quote(a.Text))
		}
		return fmt.Sprintf("await page.getByText(%s).click();", quote(a.Text))

	case types.ActionSelectInput:
		return fmt.Sprintf(
			"await fillField(page, %s, %s);",
			quote(a.Field), quote(a.Value),
		)

	case types.ActionTypeText:
		if loc := locator.BuildPlaywrightLocator(step.ElementInfo); loc.OK {
			return loc.Expr + fmt.Sprintf(".fill(%s);", quote(a.Text))
		}
		return fmt.Sprintf("await page.keyboard.type(%s);", quote(a.Text))

	case types.ActionKey:
		return fmt.Sprintf("await page.keyboard.press(%s);", quote(types.NormalizeKeyCombo(a.Combo)))

	case types.ActionScroll:
		delta := a.Amount
		if a.Direction == types.ScrollUp {
			delta = -delta
		}
		return fmt.Sprintf("await page.mouse.wheel(0, %d);", delta)

	case types.ActionWait:
		return fmt.Sprintf("await page.waitForTimeout(%d);", a.Milliseconds)

	case types.ActionAssertText:
		return fmt.Sprintf("await expect(page.getByText(%s)).toBeVisible();", quote(a.Text))

	case types.ActionAssertNotText:
		return fmt.Sprintf("await expect(page.getByText(%s)).toHaveCount(0);", quote(a.Text))

	case types.ActionAssertVisible:
		if loc := locator.BuildPlaywrightLocator(step.ElementInfo); loc.OK {
			return loc.Expr + ".waitFor({ state: 'visible' });"
		}
		return ""

	case types.ActionDrag:
		return "// drag action recorded but not replayable — see docs"

	default:
		// done, mouse_move, double_click, screenshot: spec §4.4 emits nothing.
		return ""
	}
}

// fillFieldHelper implements select_input's try-order (spec §4.1/§4.4):
// label, then placeholder, then role=textbox name=field.
const fillFieldHelper = `async function fillField(page, field, value) {
  const byLabel = page.getByLabel(field);
  if (await byLabel.count() > 0) {
    await byLabel.first().fill(value);
    return;
  }
  const byPlaceholder = page.getByPlaceholder(field);
  if (await byPlaceholder.count() > 0) {
    await byPlaceholder.first().fill(value);
    return;
  }
  await page.getByRole('textbox', { name: field }).first().fill(value);
}
`

func quote(s string) string {
	return "'" + escape(s) + "'"
}

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

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
