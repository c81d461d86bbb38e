package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustGoscha/zentest/internal/llm"
	"github.com/JustGoscha/zentest/internal/types"
)

type fakeExecutor struct {
	navigateErr   error
	screenshotErr error
	results       []types.ActionResult
	executed      []types.Action
}

func (f *fakeExecutor) Navigate(ctx context.Context, urlPath string) error { return f.navigateErr }
func (f *fakeExecutor) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("png"), f.screenshotErr
}
func (f *fakeExecutor) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) {}
func (f *fakeExecutor) Execute(ctx context.Context, action types.Action) (types.ActionResult, error) {
	f.executed = append(f.executed, action)
	if len(f.results) == 0 {
		return types.ActionResult{Action: action}, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	r.Action = action
	return r, nil
}

func TestRunTestSucceedsOnImmediateDone(t *testing.T) {
	model := llm.NewMockClient([]string{`{"actions":[{"action":"assert_text","text":"Welcome"},{"action":"done","success":true,"reason":"all good"}],"reasoning":"checking"}`})
	exec := &fakeExecutor{}
	d := New(exec, model, "https://example.com", "suite", "test", nil)

	result, err := d.RunTest(context.Background(), "log in", Options{MaxSteps: 10})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "all good", result.Reason)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, types.ActionAssertText, result.Steps[0].Action.Type)
}

func TestRunTestStopsAtMaxSteps(t *testing.T) {
	model := llm.NewMockClient([]string{
		`{"actions":[{"action":"wait","ms":1}],"reasoning":"r"}`,
		`{"actions":[{"action":"wait","ms":1}],"reasoning":"r"}`,
		`{"actions":[{"action":"wait","ms":1}],"reasoning":"r"}`,
	})
	exec := &fakeExecutor{}
	d := New(exec, model, "https://example.com", "suite", "test", nil)

	result, err := d.RunTest(context.Background(), "do something", Options{MaxSteps: 2})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Max steps reached", result.Reason)
	assert.Len(t, result.Steps, 2)
}

func TestRunTestClearsPendingBatchOnExecutorError(t *testing.T) {
	model := llm.NewMockClient([]string{
		`{"actions":[{"action":"click_button","name":"Go"},{"action":"wait","ms":1}],"reasoning":"r"}`,
		`{"actions":[{"action":"done","success":true,"reason":"recovered"}],"reasoning":"r"}`,
	})
	exec := &fakeExecutor{results: []types.ActionResult{{Error: types.FailureElementNotFound}}}
	d := New(exec, model, "https://example.com", "suite", "test", nil)

	result, err := d.RunTest(context.Background(), "click go", Options{MaxSteps: 10})
	require.NoError(t, err)
	assert.True(t, result.Success)
	// The first batch's trailing "wait" was never consumed — clearing pendingBatch
	// on failure forces a fresh model call instead of blindly continuing.
	for _, step := range result.Steps {
		assert.NotEqual(t, types.ActionWait, step.Action.Type)
	}
}

func TestRunTestRepetitionGuardTerminates(t *testing.T) {
	responses := make([]string, 5)
	for i := range responses {
		responses[i] = `{"actions":[{"action":"click_button","name":"Retry"}],"reasoning":"r"}`
	}
	model := llm.NewMockClient(responses)
	exec := &fakeExecutor{}
	d := New(exec, model, "https://example.com", "suite", "test", nil)

	result, err := d.RunTest(context.Background(), "retry forever", Options{MaxSteps: 20})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Repeated same action without progress", result.Reason)
}

func TestRunTestNoResponseRetryExhaustsToFailure(t *testing.T) {
	responses := make([]string, 5)
	for i := range responses {
		responses[i] = `{"actions":[{"action":"done","success":false,"reason":"No response yet"}],"reasoning":""}`
	}
	model := llm.NewMockClient(responses)
	exec := &fakeExecutor{}
	d := New(exec, model, "https://example.com", "suite", "test", nil)

	result, err := d.RunTest(context.Background(), "do it", Options{MaxSteps: 10, RetryNoResponse: 2})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "No response after retries", result.Reason)
}

func TestRunTestNavigationFailureReturnsGracefully(t *testing.T) {
	exec := &fakeExecutor{navigateErr: assert.AnError}
	model := llm.NewMockClient(nil)
	d := New(exec, model, "https://example.com", "suite", "test", nil)

	result, err := d.RunTest(context.Background(), "anything", Options{MaxSteps: 5})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Reason, "Navigation failed")
}

func TestRunTestSkipNavigationDoesNotCallNavigate(t *testing.T) {
	exec := &fakeExecutor{navigateErr: assert.AnError}
	model := llm.NewMockClient([]string{`{"actions":[{"action":"done","success":true,"reason":"ok"}],"reasoning":"r"}`})
	d := New(exec, model, "https://example.com", "suite", "test", nil)

	result, err := d.RunTest(context.Background(), "anything", Options{MaxSteps: 5, SkipNavigation: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestRunTestPrematureDoneIsDroppedAndContinues(t *testing.T) {
	model := llm.NewMockClient([]string{
		`{"actions":[{"action":"wait","ms":1},{"action":"done","success":true,"reason":"done"}],"reasoning":"I still need to check one more thing"}`,
		`{"actions":[{"action":"assert_text","text":"ok"},{"action":"done","success":true,"reason":"really done"}],"reasoning":"confirmed"}`,
	})
	exec := &fakeExecutor{}
	d := New(exec, model, "https://example.com", "suite", "test", nil)

	result, err := d.RunTest(context.Background(), "finish up", Options{MaxSteps: 10})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "really done", result.Reason)
}

func TestRunTestMaxStepsZeroFailsImmediately(t *testing.T) {
	model := llm.NewMockClient(nil)
	exec := &fakeExecutor{}
	d := New(exec, model, "https://example.com", "suite", "test", nil)

	result, err := d.RunTest(context.Background(), "anything", Options{MaxSteps: 0})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Max steps reached", result.Reason)
	assert.Empty(t, result.Steps)
}

func TestRunTestEmptyActionsCoercesToNoActionsReturned(t *testing.T) {
	model := llm.NewMockClient([]string{`{"actions":[],"reasoning":"nothing to do"}`})
	exec := &fakeExecutor{}
	d := New(exec, model, "https://example.com", "suite", "test", nil)

	result, err := d.RunTest(context.Background(), "do something", Options{MaxSteps: 10})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "No actions returned", result.Reason)
	assert.Empty(t, result.Steps)
}

func TestRunTestPrematureDoneWithEmptyPrefixReDerives(t *testing.T) {
	model := llm.NewMockClient([]string{
		`{"actions":[{"action":"done","success":true,"reason":"done"}],"reasoning":"still need to submit the form"}`,
		`{"actions":[{"action":"done","success":true,"reason":"really done"}],"reasoning":"confirmed"}`,
	})
	exec := &fakeExecutor{}
	d := New(exec, model, "https://example.com", "suite", "test", nil)

	result, err := d.RunTest(context.Background(), "finish up", Options{MaxSteps: 10})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "really done", result.Reason)
}

func TestRepeatedRequiresThreeIdenticalTrailingSignatures(t *testing.T) {
	steps := []types.RecordedStep{
		{Action: types.Action{Type: types.ActionWait, Milliseconds: 1}},
		{Action: types.Action{Type: types.ActionClickButton, Name: "Go"}},
		{Action: types.Action{Type: types.ActionClickButton, Name: "Go"}},
	}
	assert.False(t, repeated(steps, types.Action{Type: types.ActionClickButton, Name: "Go"}))

	steps = append(steps, types.RecordedStep{Action: types.Action{Type: types.ActionClickButton, Name: "Go"}})
	assert.True(t, repeated(steps[1:], types.Action{Type: types.ActionClickButton, Name: "Go"}))
}
