package artifact

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDecisionActionString(t *testing.T) {
	d := &Document{Decision: json.RawMessage(`"SELL"`)}
	if got := d.DecisionAction(); got != "SELL" {
		t.Errorf("DecisionAction: got %q, want SELL", got)
	}
}

func TestDecisionActionObject(t *testing.T) {
	d := &Document{Decision: json.RawMessage(`{"action": "HOLD", "reason": "choppy"}`)}
	if got := d.DecisionAction(); got != "HOLD" {
		t.Errorf("DecisionAction: got %q, want HOLD", got)
	}
}

func TestDecisionActionUnknown(t *testing.T) {
	for _, raw := range []string{"", `[1, 2]`, `{"verdict": "BUY"}`} {
		d := &Document{Decision: json.RawMessage(raw)}
		if got := d.DecisionAction(); got != "UNKNOWN" {
			t.Errorf("DecisionAction(%q): got %q, want UNKNOWN", raw, got)
		}
	}
}

func TestDecisionSummaryTruncates(t *testing.T) {
	long := `{"action": "BUY", "reason": "` + strings.Repeat("x", 100) + `"}`
	d := &Document{Decision: json.RawMessage(long)}

	got := d.DecisionSummary()
	if len(got) != 53 || !strings.HasSuffix(got, "...") {
		t.Errorf("DecisionSummary: got %d chars %q", len(got), got)
	}
}

func TestDecisionSummaryMultibyte(t *testing.T) {
	// Rupee signs straddle the 50th position; the cut must land on a rune
	// boundary, not mid-sequence.
	long := `{"reason": "` + strings.Repeat("₹", 100) + `"}`
	d := &Document{Decision: json.RawMessage(long)}

	got := d.DecisionSummary()
	if !utf8.ValidString(got) {
		t.Fatalf("DecisionSummary produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 53 {
		t.Errorf("DecisionSummary: got %d runes, want 53", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("DecisionSummary: missing ellipsis: %q", got)
	}
}

func TestDecisionSummaryShortUntouched(t *testing.T) {
	d := &Document{Decision: json.RawMessage(`"BUY"`)}
	if got := d.DecisionSummary(); got != `"BUY"` {
		t.Errorf("DecisionSummary: got %q", got)
	}
}
