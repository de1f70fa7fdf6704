package core

import "time"

// UsageLog is one billed call to the generative service.
type UsageLog struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Feature      string    `json:"feature"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	CostUSD      float64   `json:"costUSD"`
	CostIDR      float64   `json:"costIDR"`
}

type UsageSummary struct {
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	TotalUSD     float64 `json:"totalUSD"`
	TotalIDR     float64 `json:"totalIDR"`
}

// Summarize totals logs.
func Summarize(logs []UsageLog) UsageSummary {
	var s UsageSummary
	for _, l := range logs {
		s.Calls++
		s.InputTokens += l.InputTokens
		s.OutputTokens += l.OutputTokens
		s.TotalUSD += l.CostUSD
		s.TotalIDR += l.CostIDR
	}
	return s
}
