// Package replayer deterministically re-executes a saved RecordedStep
// sequence against a live page, without consulting any model. It exists to
// fast-forward browser state to where the AgenticDriver or HealingOrchestrator
// needs to pick up — never to revalidate a saved test.
package replayer

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/JustGoscha/zentest/internal/browser"
	"github.com/JustGoscha/zentest/internal/types"
)

// submitLikeName matches button/text names after which the spec asks for an
// extra network-idle wait plus a 1s settle, on top of the fixed 250ms every
// click gets.
var submitLikeName = regexp.MustCompile(`(?i)sign.?in|log.?in|submit|save|confirm|continue|next`)

// Executor is the subset of browser.Executor the Replayer drives. Kept as
// an interface so tests can swap in a fake rather than launching Chrome.
type Executor interface {
	Execute(ctx context.Context, action types.Action) (types.ActionResult, error)
	LocateAndClick(ctx context.Context, info *types.ElementInfo) (bool, error)
	WaitForNetworkIdle(ctx context.Context, timeout time.Duration)
}

var _ Executor = (*browser.Executor)(nil)

// Replayer replays RecordedStep sequences through an Executor.
type Replayer struct {
	executor Executor
}

// New returns a Replayer bound to executor.
func New(executor Executor) *Replayer {
	return &Replayer{executor: executor}
}

// Replay walks steps in order. Steps whose original run produced an error
// are skipped (spec §4.2: they never happened, successfully, the first
// time). Assertions are skipped entirely — replay fast-forwards state, it
// does not revalidate. The first step that cannot be re-executed aborts
// the whole replay; the caller treats that as "replay failed, fall back".
func (r *Replayer) Replay(ctx context.Context, steps []types.RecordedStep) error {
	for i, step := range steps {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if step.Error != "" {
			continue
		}

		switch step.Action.Type {
		case types.ActionAssertText, types.ActionAssertNotText, types.ActionAssertVisible, types.ActionDone:
			continue
		}

		if step.Action.Type == types.ActionClick && step.ElementInfo != nil {
			found, err := r.executor.LocateAndClick(ctx, step.ElementInfo)
			if err != nil {
				return fmt.Errorf("replay step %d (click): %w", i, err)
			}
			if !found {
				return fmt.Errorf("replay step %d (click): could not relocate %s", i, step.ElementInfo.Selector)
			}
			r.settle(ctx, step)
			continue
		}

		result, err := r.executor.Execute(ctx, step.Action)
		if err != nil {
			return fmt.Errorf("replay step %d (%s): %w", i, step.Action.Type, err)
		}
		if result.Error != "" {
			return fmt.Errorf("replay step %d (%s): %s", i, step.Action.Type, result.Error)
		}
		if isClickLike(step.Action.Type) {
			r.settle(ctx, step)
		}
	}
	return nil
}

// settle implements spec §4.2's post-click wait: a fixed 250ms always, and
// for submit-like names an additional network-idle wait plus 1s.
func (r *Replayer) settle(ctx context.Context, step types.RecordedStep) {
	time.Sleep(250 * time.Millisecond)
	if !isSubmitLike(step.Action) {
		return
	}
	r.executor.WaitForNetworkIdle(ctx, 5*time.Second)
	time.Sleep(1 * time.Second)
}

func isClickLike(t types.ActionType) bool {
	switch t {
	case types.ActionClick, types.ActionClickButton, types.ActionClickText:
		return true
	default:
		return false
	}
}

func isSubmitLike(a types.Action) bool {
	return submitLikeName.MatchString(a.Name) || submitLikeName.MatchString(a.Text)
}
