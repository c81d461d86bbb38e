package replayer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JustGoscha/zentest/internal/types"
)

type fakeExecutor struct {
	executed    []types.Action
	locateFound bool
	locateErr   error
	execErr     error
	resultErr   string
	idleWaits   int
}

func (f *fakeExecutor) Execute(ctx context.Context, action types.Action) (types.ActionResult, error) {
	f.executed = append(f.executed, action)
	if f.execErr != nil {
		return types.ActionResult{}, f.execErr
	}
	return types.ActionResult{Action: action, Error: f.resultErr}, nil
}

func (f *fakeExecutor) LocateAndClick(ctx context.Context, info *types.ElementInfo) (bool, error) {
	return f.locateFound, f.locateErr
}

func (f *fakeExecutor) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) {
	f.idleWaits++
}

func TestReplaySkipsStepsThatOriginallyErrored(t *testing.T) {
	exec := &fakeExecutor{}
	steps := []types.RecordedStep{
		{Action: types.Action{Type: types.ActionTypeText, Text: "hi"}, Error: "element-not-found"},
	}
	if err := New(exec).Replay(context.Background(), steps); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(exec.executed) != 0 {
		t.Fatalf("expected errored step to be skipped, executed %v", exec.executed)
	}
}

func TestReplaySkipsAssertionsAndDone(t *testing.T) {
	exec := &fakeExecutor{}
	steps := []types.RecordedStep{
		{Action: types.Action{Type: types.ActionAssertText, Text: "x"}},
		{Action: types.Action{Type: types.ActionAssertNotText, Text: "y"}},
		{Action: types.Action{Type: types.ActionAssertVisible, X: 1, Y: 2}},
		{Action: types.Action{Type: types.ActionDone, Success: true}},
	}
	if err := New(exec).Replay(context.Background(), steps); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(exec.executed) != 0 {
		t.Fatalf("expected no executed steps, got %v", exec.executed)
	}
}

func TestReplayClickUsesElementInfoLocator(t *testing.T) {
	exec := &fakeExecutor{locateFound: true}
	steps := []types.RecordedStep{
		{Action: types.Action{Type: types.ActionClick, X: 5, Y: 5}, ElementInfo: &types.ElementInfo{ID: "go"}},
	}
	if err := New(exec).Replay(context.Background(), steps); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(exec.executed) != 0 {
		t.Fatalf("expected Execute not to be called for elementInfo click, got %v", exec.executed)
	}
}

func TestReplayClickFailsWhenElementCannotBeRelocated(t *testing.T) {
	exec := &fakeExecutor{locateFound: false}
	steps := []types.RecordedStep{
		{Action: types.Action{Type: types.ActionClick, X: 5, Y: 5}, ElementInfo: &types.ElementInfo{ID: "go"}},
	}
	if err := New(exec).Replay(context.Background(), steps); err == nil {
		t.Fatalf("expected replay error when element cannot be relocated")
	}
}

func TestReplayAbortsOnFirstExecutorError(t *testing.T) {
	exec := &fakeExecutor{execErr: errors.New("boom")}
	steps := []types.RecordedStep{
		{Action: types.Action{Type: types.ActionTypeText, Text: "a"}},
		{Action: types.Action{Type: types.ActionTypeText, Text: "b"}},
	}
	if err := New(exec).Replay(context.Background(), steps); err == nil {
		t.Fatalf("expected error")
	}
	if len(exec.executed) != 1 {
		t.Fatalf("expected replay to stop after first failing step, executed %d", len(exec.executed))
	}
}

func TestReplayAbortsWhenResultCarriesError(t *testing.T) {
	exec := &fakeExecutor{resultErr: types.FailureElementNotFound}
	steps := []types.RecordedStep{
		{Action: types.Action{Type: types.ActionClickButton, Name: "Go"}},
	}
	if err := New(exec).Replay(context.Background(), steps); err == nil {
		t.Fatalf("expected error when ActionResult carries a failure")
	}
}

func TestReplaySubmitLikeButtonWaitsForNetworkIdle(t *testing.T) {
	exec := &fakeExecutor{}
	steps := []types.RecordedStep{
		{Action: types.Action{Type: types.ActionClickButton, Name: "Sign in", Exact: true}},
	}
	if err := New(exec).Replay(context.Background(), steps); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if exec.idleWaits != 1 {
		t.Fatalf("expected one network-idle wait for a submit-like button, got %d", exec.idleWaits)
	}
}

func TestReplayNonSubmitButtonSkipsNetworkIdleWait(t *testing.T) {
	exec := &fakeExecutor{}
	steps := []types.RecordedStep{
		{Action: types.Action{Type: types.ActionClickButton, Name: "Expand details", Exact: true}},
	}
	if err := New(exec).Replay(context.Background(), steps); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if exec.idleWaits != 0 {
		t.Fatalf("expected no network-idle wait, got %d", exec.idleWaits)
	}
}
