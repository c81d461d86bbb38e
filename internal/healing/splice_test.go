package healing

import (
	"strings"
	"testing"
)

const sampleScript = `import { test, expect } from '@playwright/test';

test.describe.serial('checkout', () => {
  test('adds item to cart', async ({ page }) => {
    await page.goto('https://example.com');
    await page.getByRole('button', { name: 'Add', exact: false }).click();
  });

  test('completes checkout', async ({ page }) => {
    await page.getByRole('button', { name: 'Checkout', exact: false }).click();
    await expect(page.getByText('Thank you')).toBeVisible();
  });
});
`

func TestSpliceTestBodyReplacesOnlyNamedTest(t *testing.T) {
	out, err := SpliceTestBody(sampleScript, "completes checkout", "await page.getByRole('button', { name: 'Pay now' }).click();")
	if err != nil {
		t.Fatalf("SpliceTestBody: %v", err)
	}
	if !strings.Contains(out, "await page.getByRole('button', { name: 'Pay now' }).click();") {
		t.Fatalf("spliced body missing from output:\n%s", out)
	}
	if !strings.Contains(out, "adds item to cart") || !strings.Contains(out, "await page.getByRole('button', { name: 'Add', exact: false }).click();") {
		t.Fatalf("untouched test was modified:\n%s", out)
	}
	if strings.Contains(out, "Thank you") {
		t.Fatalf("old body of the rewritten test should be gone:\n%s", out)
	}
}

func TestSpliceTestBodyUnknownTestErrors(t *testing.T) {
	_, err := SpliceTestBody(sampleScript, "does not exist", "// x")
	if err == nil {
		t.Fatal("expected an error for an unknown test name")
	}
}

func TestSpliceTestBodyPreservesSurroundingStructure(t *testing.T) {
	out, err := SpliceTestBody(sampleScript, "adds item to cart", "await page.waitForTimeout(10);")
	if err != nil {
		t.Fatalf("SpliceTestBody: %v", err)
	}
	if !strings.Contains(out, "test.describe.serial('checkout'") {
		t.Fatalf("describe block header lost:\n%s", out)
	}
	if !strings.Contains(out, "});\n") {
		t.Fatalf("closing structure lost:\n%s", out)
	}
}

func TestExtractTestBodyRoundTripsWithSplice(t *testing.T) {
	body, err := extractTestBody(sampleScript, "adds item to cart")
	if err != nil {
		t.Fatalf("extractTestBody: %v", err)
	}
	if !strings.Contains(body, "page.goto") {
		t.Fatalf("extracted body missing expected line:\n%s", body)
	}
}
