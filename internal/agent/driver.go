// Package agent implements the AgenticDriver: the state machine that
// drives a browser page to satisfy one Test.description, producing a
// sequence of RecordedStep by alternating model calls with BrowserExecutor
// actions. It never talks to chromedp directly — only through the
// Executor capability below — so it can be driven against a fake in tests.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JustGoscha/zentest/internal/config"
	"github.com/JustGoscha/zentest/internal/llm"
	"github.com/JustGoscha/zentest/internal/types"
)

// Executor is the subset of browser.Executor the driver needs.
type Executor interface {
	Navigate(ctx context.Context, urlPath string) error
	Execute(ctx context.Context, action types.Action) (types.ActionResult, error)
	Screenshot(ctx context.Context) ([]byte, error)
	WaitForNetworkIdle(ctx context.Context, timeout time.Duration)
}

// Broadcaster fans recorded steps out to the live-view feed (§13). It is
// fire-and-forget: Driver never blocks on it or inspects an error.
type Broadcaster interface {
	Broadcast(event types.LiveEvent)
}

// Options configures a single RunTest call.
type Options struct {
	MaxSteps        int
	Viewport        config.Viewport
	RetryNoResponse int
	SkipNavigation  bool
	Verbose         bool
}

// Result is what RunTest returns: the outcome plus every recorded step
// (screenshots included; the caller decides whether to persist them).
type Result struct {
	Success bool
	Reason  string
	Steps   []types.RecordedStep
	Usage   types.UsageStats
}

// noResponseReasons are the done{success:false} reasons that trigger the
// no-response retry loop rather than ending the test (spec §4.3).
var noResponseReasons = []string{"No response", "Failed to parse", "Unknown action"}

// continuationPhrases mark a done{success:true} as premature: the model
// said it's done but its own reasoning says otherwise (spec §4.3).
var continuationPhrases = []string{
	"still need", "remaining", "more steps", "not yet", "haven't completed",
	"next step", "continue with", "haven't done", "not complete", "incomplete",
}

// Driver drives one test through to completion.
type Driver struct {
	executor    Executor
	model       llm.ModelClient
	baseURL     string
	suite, test string
	broadcaster Broadcaster
}

// New returns a Driver bound to executor and model. suite/test name the
// in-flight test for live-event labeling; broadcaster may be nil.
func New(executor Executor, model llm.ModelClient, baseURL, suite, test string, broadcaster Broadcaster) *Driver {
	return &Driver{executor: executor, model: model, baseURL: baseURL, suite: suite, test: test, broadcaster: broadcaster}
}

// RunTest drives the browser to satisfy description, per the state machine
// in spec §4.3.
func (d *Driver) RunTest(ctx context.Context, description string, opts Options) (Result, error) {
	if opts.RetryNoResponse <= 0 {
		opts.RetryNoResponse = 2
	}

	if !opts.SkipNavigation {
		if err := d.executor.Navigate(ctx, d.baseURL); err != nil {
			return Result{Success: false, Reason: fmt.Sprintf("Navigation failed: %v", err)}, nil
		}
		d.executor.WaitForNetworkIdle(ctx, 5*time.Second)
	}

	var (
		steps        []types.RecordedStep
		usage        types.UsageStats
		pendingBatch []types.Action
		reasoning    string
		failure      *failureState
	)

	for len(steps) < opts.MaxSteps {
		if err := ctx.Err(); err != nil {
			return Result{Success: false, Reason: "Cancelled", Steps: steps, Usage: usage}, nil
		}

		if len(pendingBatch) == 0 {
			shot, failureText, err := d.captureContext(ctx, failure)
			if err != nil {
				return Result{Success: false, Reason: fmt.Sprintf("Screenshot failed: %v", err), Steps: steps, Usage: usage}, nil
			}

			batch, batchReasoning, batchUsage, err := d.nextBatch(ctx, description, steps, shot, failureText, opts)
			usage.Add(batchUsage)
			if err != nil {
				return Result{Success: false, Reason: fmt.Sprintf("Provider error: %v", err), Steps: steps, Usage: usage}, nil
			}

			pendingBatch = trimBatch(batch)
			droppedPremature := false
			if n := len(pendingBatch); n > 0 {
				last := pendingBatch[n-1]
				if last.Type == types.ActionDone && last.Success && isPrematureDone(batchReasoning) {
					pendingBatch = pendingBatch[:n-1]
					droppedPremature = true
				}
			}
			reasoning = batchReasoning

			if len(pendingBatch) == 0 {
				if droppedPremature {
					// The only action was a done the model itself says is
					// premature; there's nothing left to execute from this
					// batch, so re-derive the next one instead of ending early.
					continue
				}
				// A genuinely empty actions array has no action to execute;
				// coerce it to a terminal failure rather than indexing an
				// empty batch.
				pendingBatch = []types.Action{{Type: types.ActionDone, Success: false, Reason: "No actions returned"}}
			}
		}

		action := pendingBatch[0]
		pendingBatch = pendingBatch[1:]

		if action.IsTerminal() {
			return Result{Success: action.Success, Reason: action.Reason, Steps: steps, Usage: usage}, nil
		}

		if repeated(steps, action) {
			return Result{Success: false, Reason: "Repeated same action without progress", Steps: steps, Usage: usage}, nil
		}

		result, err := d.executor.Execute(ctx, action)
		if err != nil {
			return Result{}, fmt.Errorf("execute action %s: %w", action.Type, err)
		}

		step := types.RecordedStep{
			Action:      action,
			Reasoning:   reasoning,
			ElementInfo: result.ElementInfo,
			Screenshot:  result.Screenshot,
			Error:       result.Error,
			Timestamp:   result.Timestamp,
			Mode:        types.ModeAgentic,
		}
		steps = append(steps, step)
		d.emitStep(step)

		if result.Error != "" {
			failure = &failureState{error: result.Error, action: action, screenshot: result.Screenshot}
			pendingBatch = nil
		} else {
			failure = nil
		}
	}

	return Result{Success: false, Reason: "Max steps reached", Steps: steps, Usage: usage}, nil
}

type failureState struct {
	error      string
	action     types.Action
	screenshot []byte
}

// captureContext picks the screenshot and failure-feedback text for the
// next model call: the failure screenshot if a step just failed, else a
// fresh capture.
func (d *Driver) captureContext(ctx context.Context, failure *failureState) ([]byte, string, error) {
	if failure != nil {
		return failure.screenshot, fmt.Sprintf("%s (%s)", failure.error, failure.action.Type), nil
	}
	shot, err := d.executor.Screenshot(ctx)
	if err != nil {
		return nil, "", err
	}
	return shot, "", nil
}

// nextBatch invokes the model once, retrying up to opts.RetryNoResponse times if
// the result is an unproductive done{success:false} (spec §4.3).
func (d *Driver) nextBatch(
	ctx context.Context, description string, steps []types.RecordedStep,
	screenshot []byte, failureText string, opts Options,
) ([]types.Action, string, types.UsageStats, error) {
	var totalUsage types.UsageStats
	feedback := failureText

	for attempt := 0; attempt <= opts.RetryNoResponse; attempt++ {
		systemPrompt := buildSystemPrompt(opts.Viewport, summarizeHistory(steps))
		userText := buildUserText(description, feedback)

		resp, err := d.model.Next(ctx, llm.Request{SystemPrompt: systemPrompt, UserText: userText, ImagePNG: screenshot})
		if err != nil {
			return nil, "", totalUsage, err
		}
		if resp.TokenUsage != nil {
			totalUsage.Add(*resp.TokenUsage)
		}

		env, parseErr := parseEnvelope(resp.RawText)
		if parseErr != nil {
			feedback = fmt.Sprintf("Failed to parse your previous response as JSON: %v. Respond with valid JSON only.", parseErr)
			continue
		}

		if isUnproductiveDone(env.Actions) {
			feedback = fmt.Sprintf("%s Please try a different approach.", env.Actions[0].Reason)
			continue
		}

		return env.Actions, env.Reasoning, totalUsage, nil
	}

	return []types.Action{{Type: types.ActionDone, Success: false, Reason: "No response after retries"}}, "", totalUsage, nil
}

func isUnproductiveDone(actions []types.Action) bool {
	if len(actions) != 1 || actions[0].Type != types.ActionDone || actions[0].Success {
		return false
	}
	reason := actions[0].Reason
	for _, marker := range noResponseReasons {
		if strings.Contains(reason, marker) {
			return true
		}
	}
	return false
}

// trimBatch truncates a batch at the first done; the caller separately
// drops a trailing done{success:true} whose reasoning (see isPrematureDone)
// claims more work remains, so the driver re-derives the next step instead
// of ending early.
func trimBatch(actions []types.Action) []types.Action {
	for i, a := range actions {
		if a.Type == types.ActionDone {
			return actions[:i+1]
		}
	}
	return actions
}

// isPrematureDone reports whether a done{success:true} reasoning string
// indicates the model itself believes more steps remain (spec §4.3).
func isPrematureDone(reasoning string) bool {
	lower := strings.ToLower(reasoning)
	for _, phrase := range continuationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// repeated reports whether action's signature matches the last 3 recorded
// steps exactly (spec §4.3/§8's repetition guard).
func repeated(steps []types.RecordedStep, action types.Action) bool {
	if len(steps) < 3 {
		return false
	}
	sig := action.Signature()
	for _, step := range steps[len(steps)-3:] {
		if step.Action.Signature() != sig {
			return false
		}
	}
	return true
}

func (d *Driver) emitStep(step types.RecordedStep) {
	if d.broadcaster == nil {
		return
	}
	d.broadcaster.Broadcast(types.LiveEvent{Kind: types.LiveEventStep, Suite: d.suite, Test: d.test, Payload: step})
}
