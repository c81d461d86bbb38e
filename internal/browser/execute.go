package browser

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/JustGoscha/zentest/internal/types"
)

// Execute runs a single Action against the live page and returns its
// ActionResult. Per spec §4.1 it never returns an error for expected
// action failures (missing element, timeout) — those are reported via
// ActionResult.Error instead. It returns an error only for an
// unrecognized action type, an invariant violation the caller (the
// AgenticDriver's parser) should have already ruled out.
func (e *Executor) Execute(ctx context.Context, action types.Action) (types.ActionResult, error) {
	result := types.ActionResult{Action: action}

	var execErr error
	switch action.Type {
	case types.ActionClick:
		execErr = e.execClick(ctx, action, &result)
	case types.ActionDoubleClick:
		execErr = e.execDoubleClick(ctx, action)
	case types.ActionMouseMove:
		execErr = e.execMouseMove(ctx, action)
	case types.ActionDrag:
		execErr = e.execDrag(ctx, action)
	case types.ActionClickButton:
		execErr = e.execClickByRole(ctx, action, &result)
	case types.ActionClickText:
		execErr = e.execClickByText(ctx, action, &result)
	case types.ActionSelectInput:
		execErr = e.execSelectInput(ctx, action, &result)
	case types.ActionTypeText:
		execErr = e.execType(ctx, action)
	case types.ActionKey:
		execErr = e.execKey(ctx, action)
	case types.ActionScroll:
		execErr = e.execScroll(ctx, action)
	case types.ActionWait:
		time.Sleep(time.Duration(action.Milliseconds) * time.Millisecond)
	case types.ActionAssertText:
		execErr = e.execAssertText(ctx, action.Text, true)
	case types.ActionAssertNotText:
		execErr = e.execAssertText(ctx, action.Text, false)
	case types.ActionAssertVisible:
		execErr = e.execAssertVisible(ctx, action, &result)
	case types.ActionDone:
		// terminal; nothing to execute
	default:
		return result, fmt.Errorf("unknown action type after parse: %q", action.Type)
	}

	if execErr != nil {
		result.Error = classifyError(action.Type, execErr)
	}

	e.settle()
	if shot, shotErr := e.Screenshot(ctx); shotErr == nil {
		result.Screenshot = shot
	}
	result.Timestamp = time.Now().UnixMilli()

	return result, nil
}

// settle waits the 300-1000ms jitter spec §4.1 asks for between an
// action and its screenshot.
func (e *Executor) settle() {
	time.Sleep(time.Duration(300+rand.Intn(700)) * time.Millisecond)
}

// classifyError maps an execution error onto spec §4.1's failure
// taxonomy. Errors raised by this package already embed the taxonomy
// string as a prefix (see execClickByRole et al.); anything else is a
// lower-level chromedp/CDP error classified by keyword.
func classifyError(actionType types.ActionType, err error) string {
	switch actionType {
	case types.ActionAssertText, types.ActionAssertNotText, types.ActionAssertVisible:
		return types.FailureAssertionFailed
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, types.FailureElementNotFound):
		return types.FailureElementNotFound
	case strings.Contains(msg, types.FailureLocatorAmbiguous), strings.Contains(msg, "ambiguous"):
		return types.FailureLocatorAmbiguous
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return types.FailureNavigationTimeout
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no match"):
		return types.FailureElementNotFound
	default:
		return types.FailureActionThrow
	}
}

func (e *Executor) execClick(ctx context.Context, action types.Action, result *types.ActionResult) error {
	info, x, y, err := probeElementAt(ctx, action.X, action.Y)
	if err != nil {
		return err
	}
	result.ElementInfo = info

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.MouseClickXY(float64(x), float64(y)))
}

func (e *Executor) execDoubleClick(ctx context.Context, action types.Action) error {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return chromedp.Run(runCtx,
		input.DispatchMouseEvent(input.MousePressed, float64(action.X), float64(action.Y)).
			WithButton(input.Left).WithClickCount(2),
		input.DispatchMouseEvent(input.MouseReleased, float64(action.X), float64(action.Y)).
			WithButton(input.Left).WithClickCount(2),
	)
}

func (e *Executor) execMouseMove(ctx context.Context, action types.Action) error {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return chromedp.Run(runCtx, input.DispatchMouseEvent(input.MouseMoved, float64(action.X), float64(action.Y)))
}

func (e *Executor) execDrag(ctx context.Context, action types.Action) error {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return chromedp.Run(runCtx,
		input.DispatchMouseEvent(input.MousePressed, float64(action.X), float64(action.Y)).WithButton(input.Left).WithClickCount(1),
		input.DispatchMouseEvent(input.MouseMoved, float64(action.EndX), float64(action.EndY)),
		input.DispatchMouseEvent(input.MouseReleased, float64(action.EndX), float64(action.EndY)).WithButton(input.Left).WithClickCount(1),
	)
}

func (e *Executor) execClickByRole(ctx context.Context, action types.Action, result *types.ActionResult) error {
	script := fmt.Sprintf(clickByRoleScript, action.Name, action.Exact)
	info, found, err := runFindScript(ctx, script)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: no button named %q", types.FailureElementNotFound, action.Name)
	}
	result.ElementInfo = info
	return nil
}

func (e *Executor) execClickByText(ctx context.Context, action types.Action, result *types.ActionResult) error {
	script := fmt.Sprintf(clickByTextScript, action.Text, action.Exact)
	info, found, err := runFindScript(ctx, script)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: no element with text %q", types.FailureElementNotFound, action.Text)
	}
	result.ElementInfo = info
	return nil
}

func (e *Executor) execSelectInput(ctx context.Context, action types.Action, result *types.ActionResult) error {
	script := fmt.Sprintf(fillFieldScript, action.Field, action.Value)
	info, found, err := runFindScript(ctx, script)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: no field matching %q", types.FailureElementNotFound, action.Field)
	}
	result.ElementInfo = info
	return nil
}

func (e *Executor) execType(ctx context.Context, action types.Action) error {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.KeyEvent(action.Text))
}

func (e *Executor) execKey(ctx context.Context, action types.Action) error {
	combo := types.NormalizeKeyCombo(action.Combo)
	parts := strings.Split(combo, "+")
	key := parts[len(parts)-1]

	var modifiers input.Modifier
	for _, p := range parts[:len(parts)-1] {
		switch p {
		case "Alt":
			modifiers |= input.ModifierAlt
		case "Control":
			modifiers |= input.ModifierCtrl
		case "Meta":
			modifiers |= input.ModifierMeta
		case "Shift":
			modifiers |= input.ModifierShift
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return chromedp.Run(runCtx,
		input.DispatchKeyEvent(input.KeyDown).WithModifiers(modifiers).WithKey(key),
		input.DispatchKeyEvent(input.KeyUp).WithModifiers(modifiers).WithKey(key),
	)
}

func (e *Executor) execScroll(ctx context.Context, action types.Action) error {
	delta := action.Amount
	if action.Direction == types.ScrollUp {
		delta = -delta
	}
	script := fmt.Sprintf(`window.scrollBy(0, %d)`, delta)
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.Evaluate(script, nil))
}

func (e *Executor) execAssertText(ctx context.Context, text string, wantPresent bool) error {
	script := fmt.Sprintf(`document.body.innerText.includes(%q)`, text)
	var present bool
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &present)); err != nil {
		return err
	}
	if present != wantPresent {
		if wantPresent {
			return fmt.Errorf("expected text %q to be present", text)
		}
		return fmt.Errorf("expected text %q to be absent", text)
	}
	return nil
}

// LocateAndClick re-finds a previously recorded element by the same
// priority chain DeriveSelector used to name it and clicks it. Used by
// ScriptReplayer to fast-forward a saved click step without repeating the
// magnet-snap probe at the original (possibly now-stale) coordinate.
func (e *Executor) LocateAndClick(ctx context.Context, info *types.ElementInfo) (bool, error) {
	if info == nil {
		return false, nil
	}
	script := fmt.Sprintf(locateByElementInfoScript,
		info.TestID, info.ID, info.Role, info.AriaLabel, info.Tag, info.Text, info.Class)
	_, found, err := runFindScript(ctx, script)
	return found, err
}

func (e *Executor) execAssertVisible(ctx context.Context, action types.Action, result *types.ActionResult) error {
	info, _, _, err := probeElementAt(ctx, action.X, action.Y)
	if err != nil {
		return err
	}
	if info == nil {
		return fmt.Errorf("no visible element at (%d,%d)", action.X, action.Y)
	}
	result.ElementInfo = info
	return nil
}
