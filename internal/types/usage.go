package types

// UsageStats is returned by ModelClient implementations and aggregated
// per run for cost reporting.
type UsageStats struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	CostUSD      float64 `json:"costUSD"`
}

// Add accumulates other into the receiver, keeping Provider/Model from
// whichever side is already set.
func (u *UsageStats) Add(other UsageStats) {
	if u.Provider == "" {
		u.Provider = other.Provider
	}
	if u.Model == "" {
		u.Model = other.Model
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CostUSD += other.CostUSD
}

// RunRecord is one row persisted to the run-history store per suite run.
type RunRecord struct {
	Suite        string     `json:"suite"`
	StartedAt    int64      `json:"startedAt"`  // unix millis
	FinishedAt   int64      `json:"finishedAt"` // unix millis
	Passed       int        `json:"passed"`
	Failed       int        `json:"failed"`
	HealedBy     string     `json:"healedBy,omitempty"` // "" | "partial-replay" | "rewrite" | "full-rederivation"
	TotalActions int        `json:"totalActions"`
	TokenUsage   UsageStats `json:"tokenUsage"`
}

// LiveEventKind discriminates LiveEvent.Kind.
type LiveEventKind string

const (
	LiveEventStep       LiveEventKind = "step"
	LiveEventScreenshot LiveEventKind = "screenshot"
	LiveEventResult     LiveEventKind = "result"
)

// LiveEvent is broadcast over the live feed as a test runs. It is purely
// observational; the driver never reads it back.
type LiveEvent struct {
	Kind    LiveEventKind `json:"kind"`
	Suite   string        `json:"suite"`
	Test    string        `json:"test"`
	Payload any           `json:"payload,omitempty"`
}
