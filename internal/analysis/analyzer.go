// Package analysis defines the call contract to the decision-making
// pipeline. The pipeline itself lives outside this repository; everything
// here treats it as an opaque, possibly slow, possibly failing call.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Analyzer produces one analysis result for a ticker on a date. The full
// agent state and the decision summary come back as opaque JSON payloads.
type Analyzer interface {
	RunAnalysis(ctx context.Context, ticker, date string) (finalState, decision json.RawMessage, err error)
}

// Func adapts a plain function to the Analyzer interface.
type Func func(ctx context.Context, ticker, date string) (json.RawMessage, json.RawMessage, error)

func (f Func) RunAnalysis(ctx context.Context, ticker, date string) (json.RawMessage, json.RawMessage, error) {
	return f(ctx, ticker, date)
}

// CommandAnalyzer invokes an external producer process:
//
//	<command> [args...] <ticker> <date>
//
// and expects a single JSON object on stdout carrying "final_state" and
// "decision" fields. The process is killed when ctx is canceled.
type CommandAnalyzer struct {
	Command string
	Args    []string
}

// ParseCommand builds a CommandAnalyzer from a whitespace-separated
// command line such as "python3 runner.py". Quoting is not interpreted;
// arguments with spaces are not supported.
func ParseCommand(command string) (*CommandAnalyzer, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("analysis: empty producer command")
	}
	return &CommandAnalyzer{Command: parts[0], Args: parts[1:]}, nil
}

type commandResult struct {
	FinalState json.RawMessage `json:"final_state"`
	Decision   json.RawMessage `json:"decision"`
}

func (c *CommandAnalyzer) RunAnalysis(ctx context.Context, ticker, date string) (json.RawMessage, json.RawMessage, error) {
	args := append(append([]string{}, c.Args...), ticker, date)
	cmd := exec.CommandContext(ctx, c.Command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, nil, fmt.Errorf("analysis: producer failed: %w: %s", err, stderr.String())
	}

	var res commandResult
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return nil, nil, fmt.Errorf("analysis: producer output is not valid JSON: %w", err)
	}
	return res.FinalState, res.Decision, nil
}

// reportKeys are the final-state fields persisted as markdown reports.
var reportKeys = []string{
	"market_report",
	"sentiment_report",
	"news_report",
	"fundamentals_report",
	"trader_investment_plan",
	"final_trade_decision",
}

// ExtractReports pulls the well-known markdown report fields out of a
// final-state payload. Missing, empty and non-string fields are skipped.
func ExtractReports(finalState json.RawMessage) map[string]string {
	if len(finalState) == 0 {
		return nil
	}
	var state map[string]json.RawMessage
	if err := json.Unmarshal(finalState, &state); err != nil {
		return nil
	}

	reports := make(map[string]string)
	for _, key := range reportKeys {
		raw, ok := state[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			continue
		}
		reports[key] = s
	}
	if len(reports) == 0 {
		return nil
	}
	return reports
}
