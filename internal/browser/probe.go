package browser

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/JustGoscha/zentest/internal/locator"
	"github.com/JustGoscha/zentest/internal/types"
)

const maxElementTextLen = 120

// probeCandidate is what the in-page magnet-snap probe returns for one
// element found near a click coordinate: its distance from the click
// site, its serialized outer HTML (so the Go side derives ElementInfo
// with goquery instead of duplicating attribute extraction in
// JavaScript, per spec §4.1's implementation note), and its bounding-box
// centroid for the corrected click coordinate.
type probeCandidate struct {
	Dist      float64 `json:"dist"`
	OuterHTML string  `json:"outerHTML"`
	CenterX   float64 `json:"cx"`
	CenterY   float64 `json:"cy"`
}

// magnetSnapScript probes a 40px-radius, 6px-grid neighborhood around
// (x, y) for interactive elements, nearest first. Interactivity
// matches spec §4.1: tag in {button,a,input,textarea,select,label}, or
// role/tabindex/onclick/cursor:pointer.
const magnetSnapScript = `
(() => {
	const cx = %d, cy = %d, radius = 40, step = 6;
	const seen = new Set();
	const hits = [];
	const isInteractive = (el) => {
		const tag = el.tagName.toLowerCase();
		if (['button','a','input','textarea','select','label'].includes(tag)) return true;
		if (el.getAttribute('role')) return true;
		if (el.hasAttribute('tabindex')) return true;
		if (el.hasAttribute('onclick')) return true;
		return window.getComputedStyle(el).cursor === 'pointer';
	};
	for (let dx = -radius; dx <= radius; dx += step) {
		for (let dy = -radius; dy <= radius; dy += step) {
			const dist = Math.sqrt(dx*dx + dy*dy);
			if (dist > radius) continue;
			const el = document.elementFromPoint(cx + dx, cy + dy);
			if (!el || seen.has(el)) continue;
			seen.add(el);
			if (!isInteractive(el)) continue;
			const rect = el.getBoundingClientRect();
			hits.push({
				dist: dist,
				outerHTML: el.outerHTML.slice(0, 2000),
				cx: rect.left + rect.width / 2,
				cy: rect.top + rect.height / 2,
			});
		}
	}
	hits.sort((a, b) => a.dist - b.dist);
	return hits;
})()
`

// probeElementAt runs magnetSnapScript and returns the nearest
// interactive candidate's ElementInfo along with its bounding-box
// centroid, so the caller clicks the element rather than the raw
// coordinate the model aimed at. If no candidate was found within the
// radius it returns a nil ElementInfo and the original (x, y).
func probeElementAt(ctx context.Context, x, y int) (*types.ElementInfo, int, int, error) {
	script := fmt.Sprintf(magnetSnapScript, x, y)

	var raw []probeCandidate
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &raw)); err != nil {
		return nil, x, y, fmt.Errorf("probe element at (%d,%d): %w", x, y, err)
	}

	candidate := pickNearestCandidate(raw)
	if candidate == nil {
		return nil, x, y, nil
	}

	info, err := elementInfoFromHTML(candidate.OuterHTML)
	if err != nil {
		return nil, x, y, fmt.Errorf("parse probed element: %w", err)
	}
	info.Selector = locator.DeriveSelector(info)
	return info, int(candidate.CenterX), int(candidate.CenterY), nil
}

// pickNearestCandidate is the pure half of the magnet-snap search: the
// JS probe already restricts hits to the 40px radius and interactive
// tags, so Go only needs the closest one.
func pickNearestCandidate(candidates []probeCandidate) *probeCandidate {
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Dist < candidates[j].Dist })
	return &candidates[0]
}

// elementInfoFromHTML parses one element's serialized outer HTML with
// goquery and extracts the ElementInfo fields spec §3 names. This is
// the "Go-side pass" the implementation note in §4.1 describes.
func elementInfoFromHTML(outerHTML string) (*types.ElementInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outerHTML))
	if err != nil {
		return nil, err
	}
	sel := doc.Find("body").Children().First()
	if sel.Length() == 0 {
		sel = doc.Selection
	}

	attr := func(name string) string {
		v, _ := sel.Attr(name)
		return v
	}

	text := strings.TrimSpace(sel.Text())
	if len(text) > maxElementTextLen {
		text = text[:maxElementTextLen]
	}

	info := &types.ElementInfo{
		Tag:         goquery.NodeName(sel),
		Text:        text,
		Role:        attr("role"),
		ID:          attr("id"),
		Class:       attr("class"),
		Href:        attr("href"),
		Placeholder: attr("placeholder"),
		AriaLabel:   attr("aria-label"),
		TestID:      firstNonEmpty(attr("data-testid"), attr("data-test"), attr("data-cy")),
	}
	info.AccessibleName = firstNonEmpty(info.AriaLabel, info.Text, attr("name"), info.Placeholder)
	return info, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// findResult is what every findAndX probe script below returns: whether
// a match was located, and (if so) its serialized outer HTML for
// elementInfoFromHTML to parse.
type findResult struct {
	Found     bool   `json:"found"`
	OuterHTML string `json:"outerHTML"`
}

// clickByRoleScript finds a button-like element whose accessible name
// matches name (role=button: native <button>, input[type=button/submit],
// or [role="button"]), clicks it, and reports the element it hit.
const clickByRoleScript = `
(() => {
	const target = %q, exact = %t;
	const candidates = Array.from(document.querySelectorAll(
		'button, input[type="button"], input[type="submit"], [role="button"]'
	));
	const nameOf = (el) => (el.getAttribute('aria-label') || el.textContent || el.value || '').trim();
	const matches = (el) => {
		const name = nameOf(el);
		return exact ? name === target : name.toLowerCase().includes(target.toLowerCase());
	};
	const el = candidates.find(matches);
	if (!el) return { found: false, outerHTML: '' };
	el.click();
	return { found: true, outerHTML: el.outerHTML.slice(0, 2000) };
})()
`

// clickByTextScript finds any clickable element (link, button,
// role=button) whose visible text matches, and clicks it.
const clickByTextScript = `
(() => {
	const target = %q, exact = %t;
	const candidates = Array.from(document.querySelectorAll('a, button, [role="button"]'));
	const matches = (el) => {
		const text = el.textContent.trim();
		return exact ? text === target : text.toLowerCase().includes(target.toLowerCase());
	};
	const el = candidates.find(matches);
	if (!el) return { found: false, outerHTML: '' };
	el.click();
	return { found: true, outerHTML: el.outerHTML.slice(0, 2000) };
})()
`

// fillFieldScript implements select_input's try-order (spec §4.1):
// label=field, then placeholder=field, then role=textbox name=field.
// The native value setter is used (not .value=) so React/Vue-style
// controlled inputs observe the change, then input/change fire.
const fillFieldScript = `
(() => {
	const field = %q, value = %q;
	const setValue = (el, v) => {
		const proto = el.tagName === 'TEXTAREA' ? window.HTMLTextAreaElement.prototype : window.HTMLInputElement.prototype;
		const setter = Object.getOwnPropertyDescriptor(proto, 'value').set;
		setter.call(el, v);
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
	};

	let target = null;
	for (const label of document.querySelectorAll('label')) {
		if (label.textContent.trim().toLowerCase().includes(field.toLowerCase())) {
			target = label.control || document.getElementById(label.getAttribute('for'));
			if (target) break;
		}
	}
	if (!target) {
		target = document.querySelector('[placeholder="' + CSS.escape(field) + '"]')
			|| Array.from(document.querySelectorAll('input, textarea')).find(
				el => (el.placeholder || '').toLowerCase().includes(field.toLowerCase())
			);
	}
	if (!target) {
		target = Array.from(document.querySelectorAll('input, textarea')).find(el => {
			const name = (el.getAttribute('aria-label') || el.name || '').toLowerCase();
			return name.includes(field.toLowerCase());
		});
	}
	if (!target) return { found: false, outerHTML: '' };

	setValue(target, value);
	return { found: true, outerHTML: target.outerHTML.slice(0, 2000) };
})()
`

// locateByElementInfoScript re-finds a previously probed element by the
// same priority chain DeriveSelector used to name it (data-testid > #id >
// [role][aria-label] > tag with matching text > tag.class), then clicks it.
// This is what ScriptReplayer uses to fast-forward a saved click step
// without re-running the magnet-snap probe at a possibly-stale coordinate.
const locateByElementInfoScript = `
(() => {
	const testID = %q, id = %q, role = %q, ariaLabel = %q, tag = %q, text = %q, cls = %q;
	let el = null;
	if (testID) {
		el = document.querySelector('[data-testid="' + CSS.escape(testID) + '"]')
			|| document.querySelector('[data-test="' + CSS.escape(testID) + '"]')
			|| document.querySelector('[data-cy="' + CSS.escape(testID) + '"]');
	}
	if (!el && id) {
		el = document.getElementById(id);
	}
	if (!el && role && ariaLabel) {
		el = document.querySelector('[role="' + CSS.escape(role) + '"][aria-label="' + CSS.escape(ariaLabel) + '"]');
	}
	if (!el && tag && text) {
		el = Array.from(document.querySelectorAll(tag)).find(e => e.textContent.trim().includes(text));
	}
	if (!el && tag && cls) {
		const classes = cls.split(/\s+/).filter(Boolean);
		el = Array.from(document.querySelectorAll(tag)).find(
			e => classes.every(c => e.classList.contains(c))
		);
	}
	if (!el) return { found: false, outerHTML: '' };
	el.click();
	return { found: true, outerHTML: el.outerHTML.slice(0, 2000) };
})()
`

func runFindScript(ctx context.Context, script string) (*types.ElementInfo, bool, error) {
	var result findResult
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &result)); err != nil {
		return nil, false, err
	}
	if !result.Found {
		return nil, false, nil
	}
	info, err := elementInfoFromHTML(result.OuterHTML)
	if err != nil {
		return nil, false, err
	}
	info.Selector = locator.DeriveSelector(info)
	return info, true, nil
}
