package artifact

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/darshankharvi/Trading/internal/security"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	cipher := security.NewKeyManager(security.Config{Secret: "store-test"}).Cipher()
	return New(t.TempDir(), cipher, zerolog.Nop())
}

func testDocument(ticker string) *Document {
	return &Document{
		Timestamp:  time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC),
		Ticker:     ticker,
		Decision:   json.RawMessage(`{"action": "BUY", "confidence": 0.8}`),
		FinalState: json.RawMessage(`{"market_report": "bullish"}`),
	}
}

func TestSaveLivePlaintextLoad(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	path, err := s.SaveLive(ctx, testDocument("AAPL"), false)
	if err != nil {
		t.Fatalf("SaveLive: %v", err)
	}

	want := filepath.Join(s.LiveDir(), "2026-08-27_09-30-00_AAPL.json")
	if path != want {
		t.Errorf("path: got %s, want %s", path, want)
	}

	// On disk the plaintext artifact is the serialized document itself.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(raw) {
		t.Error("plaintext artifact is not valid JSON")
	}

	doc, err := s.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Ticker != "AAPL" {
		t.Errorf("Ticker: got %q", doc.Ticker)
	}
	if doc.DecisionAction() != "BUY" {
		t.Errorf("DecisionAction: got %q", doc.DecisionAction())
	}
}

func TestSaveLiveEncryptedLoad(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	path, err := s.SaveLive(ctx, testDocument("TCS.NS"), true)
	if err != nil {
		t.Fatalf("SaveLive: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if json.Valid(raw) {
		t.Error("encrypted artifact still parses as JSON")
	}

	doc, err := s.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Ticker != "TCS.NS" {
		t.Errorf("Ticker: got %q", doc.Ticker)
	}
}

func TestLoadMissing(t *testing.T) {
	s := testStore(t)

	_, err := s.Load(context.Background(), filepath.Join(s.LiveDir(), "absent.json"))
	if !IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	s := testStore(t)
	path := filepath.Join(t.TempDir(), "corrupt.json")

	if err := os.WriteFile(path, []byte("neither json nor a token"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load(context.Background(), path)
	if !IsUnreadable(err) {
		t.Errorf("expected ErrUnreadable, got %v", err)
	}
}

func TestLoadDecryptsButNotJSON(t *testing.T) {
	s := testStore(t)
	path := filepath.Join(t.TempDir(), "notjson.bin")

	if err := os.WriteFile(path, []byte("plain markdown, not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	cipher := security.NewKeyManager(security.Config{Secret: "store-test"}).Cipher()
	if err := cipher.EncryptFile(path); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load(context.Background(), path)
	if !IsUnreadable(err) {
		t.Errorf("expected ErrUnreadable, got %v", err)
	}
}

func TestLoadWrongKeyUnreadable(t *testing.T) {
	other := security.NewKeyManager(security.Config{Secret: "another-key"}).Cipher()
	s := testStore(t)
	path := filepath.Join(t.TempDir(), "foreign.json")

	data, _ := json.Marshal(testDocument("SPY"))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := other.EncryptFile(path); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load(context.Background(), path)
	if !IsUnreadable(err) {
		t.Errorf("expected ErrUnreadable, got %v", err)
	}
}

func TestHistorySkipsUnreadable(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	oldDoc := testDocument("OLD")
	oldPath, err := s.SaveLive(ctx, oldDoc, false)
	if err != nil {
		t.Fatal(err)
	}
	newDoc := testDocument("NEW")
	newDoc.Timestamp = newDoc.Timestamp.Add(time.Hour)
	newPath, err := s.SaveLive(ctx, newDoc, true)
	if err != nil {
		t.Fatal(err)
	}

	corrupt := filepath.Join(s.LiveDir(), "2026-08-27_11-00-00_BAD.json")
	if err := os.WriteFile(corrupt, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Pin mtimes so the newest-first ordering is deterministic.
	base := time.Now().Add(-time.Hour)
	for i, p := range []string{oldPath, newPath, corrupt} {
		ts := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(p, ts, ts); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("History: got %d entries, want 2", len(entries))
	}
	if entries[0].Doc.Ticker != "NEW" || entries[1].Doc.Ticker != "OLD" {
		t.Errorf("ordering: got %s, %s", entries[0].Doc.Ticker, entries[1].Doc.Ticker)
	}
}

func TestHistoryLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		doc := testDocument("LIM")
		doc.Timestamp = doc.Timestamp.Add(time.Duration(i) * time.Minute)
		if _, err := s.SaveLive(ctx, doc, false); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.History(ctx, 3)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("History: got %d entries, want 3", len(entries))
	}
}

func TestHistoryEmptyRoot(t *testing.T) {
	s := testStore(t)

	entries, err := s.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("History: got %d entries, want 0", len(entries))
	}
}

func TestSaveAnalysisLayout(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	reports := map[string]string{
		"market_report": "# Market\nbullish",
		"news_report":   "# News\nquiet",
	}
	path, err := s.SaveAnalysis(ctx, testDocument("INFY.NS"), "2026-08-27", reports, true)
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if path != s.AnalysisPath("INFY.NS", "2026-08-27") {
		t.Errorf("path: got %s", path)
	}

	doc, err := s.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Ticker != "INFY.NS" {
		t.Errorf("Ticker: got %q", doc.Ticker)
	}

	tickers, err := s.Tickers()
	if err != nil {
		t.Fatal(err)
	}
	if len(tickers) != 1 || tickers[0] != "INFY.NS" {
		t.Errorf("Tickers: got %v", tickers)
	}

	dates, err := s.Dates("INFY.NS")
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 1 || dates[0] != "2026-08-27" {
		t.Errorf("Dates: got %v", dates)
	}

	got, err := s.Reports("INFY.NS", "2026-08-27")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got["market_report"] != reports["market_report"] {
		t.Errorf("Reports: got %v", got)
	}

	// Reports stay plaintext even when the artifact is encrypted.
	raw, err := os.ReadFile(filepath.Join(s.root, "INFY.NS", "2026-08-27", "reports", "news_report.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != reports["news_report"] {
		t.Error("report content altered on disk")
	}
}

func TestTickersExcludesLive(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.SaveLive(ctx, testDocument("AAPL"), false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveAnalysis(ctx, testDocument("SPY"), "2026-08-27", nil, false); err != nil {
		t.Fatal(err)
	}

	tickers, err := s.Tickers()
	if err != nil {
		t.Fatal(err)
	}
	if len(tickers) != 1 || tickers[0] != "SPY" {
		t.Errorf("Tickers: got %v", tickers)
	}
}
