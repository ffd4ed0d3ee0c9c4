package artifact

import (
	"encoding/json"
	"time"
)

// Document is one persisted analysis result. Decision and FinalState are
// opaque JSON payloads owned by the producer; this package never inspects
// them beyond the summary helpers below.
type Document struct {
	Timestamp  time.Time       `json:"timestamp"`
	Ticker     string          `json:"ticker"`
	Decision   json.RawMessage `json:"decision,omitempty"`
	FinalState json.RawMessage `json:"final_state,omitempty"`
}

// DecisionAction extracts a short recommendation label from the decision
// payload. Producers emit either a bare string or an object with an
// "action" field; anything else reads as UNKNOWN.
func (d *Document) DecisionAction() string {
	if len(d.Decision) == 0 {
		return "UNKNOWN"
	}
	var s string
	if err := json.Unmarshal(d.Decision, &s); err == nil && s != "" {
		return s
	}
	var obj struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(d.Decision, &obj); err == nil && obj.Action != "" {
		return obj.Action
	}
	return "UNKNOWN"
}

// DecisionSummary renders the raw decision payload truncated to 50
// characters for history tables. Truncation counts runes, never splitting
// a multibyte sequence.
func (d *Document) DecisionSummary() string {
	s := string(d.Decision)
	runes := []rune(s)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return s
}
