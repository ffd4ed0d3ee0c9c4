// Package artifact persists analysis documents to a results tree and loads
// them back without being told whether a given file was encrypted at rest.
//
// Layout under the results root:
//
//	live/<date>_<time>_<ticker>.json      scheduled runs
//	<ticker>/<date>/analysis_result.json  on-demand runs
//	<ticker>/<date>/reports/*.md          plaintext companion reports
//
// Nothing outside the file bytes records the encoding. Readers probe in a
// fixed order: parse as JSON first, decrypt-then-parse second.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/darshankharvi/Trading/internal/security"
)

var (
	// ErrNotFound is returned when the artifact path does not exist.
	ErrNotFound = errors.New("artifact: not found")

	// ErrUnreadable marks an artifact that is neither parseable JSON nor
	// decryptable ciphertext. Batch loaders skip it and continue.
	ErrUnreadable = errors.New("artifact: unreadable artifact")
)

// IsNotFound returns true if the error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnreadable returns true if the error is or wraps ErrUnreadable.
func IsUnreadable(err error) bool {
	return errors.Is(err, ErrUnreadable)
}

// Store reads and writes artifacts under a single results root. It holds
// no per-path state: concurrent calls on distinct paths are safe, calls
// racing on one path are the caller's problem.
type Store struct {
	root    string
	cipher  *security.Cipher
	log     zerolog.Logger
	metrics *storeMetrics
	tracer  trace.Tracer
}

// New creates a Store rooted at root, decrypting with cipher.
func New(root string, cipher *security.Cipher, logger zerolog.Logger) *Store {
	return &Store{
		root:    root,
		cipher:  cipher,
		log:     logger,
		metrics: newStoreMetrics(),
		tracer:  otel.Tracer("github.com/darshankharvi/Trading/internal/artifact"),
	}
}

// LiveDir returns the directory scheduled runs are written to.
func (s *Store) LiveDir() string {
	return filepath.Join(s.root, "live")
}

// AnalysisPath returns the canonical on-demand artifact path for a ticker
// and ISO date.
func (s *Store) AnalysisPath(ticker, date string) string {
	return filepath.Join(s.root, ticker, date, "analysis_result.json")
}

// SaveLive writes doc as a scheduled-run artifact and returns its path.
// With encrypt set, the file is encrypted in place after the persist.
func (s *Store) SaveLive(ctx context.Context, doc *Document, encrypt bool) (string, error) {
	ctx, span := s.tracer.Start(ctx, "artifact.SaveLive",
		trace.WithAttributes(attribute.String("ticker", doc.Ticker)))
	defer span.End()

	dir := s.LiveDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("artifact: mkdir %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s_%s_%s.json",
		doc.Timestamp.Format("2006-01-02"),
		doc.Timestamp.Format("15-04-05"),
		doc.Ticker)
	path := filepath.Join(dir, name)

	if err := s.write(path, doc, encrypt); err != nil {
		span.RecordError(err)
		return "", err
	}
	s.metrics.save(ctx, encrypt)
	return path, nil
}

// SaveAnalysis writes doc as an on-demand artifact for its ticker under
// the given analysis date, along with its markdown reports. The date names
// the directory and may differ from the document timestamp (a backtest run
// today still files under the analyzed date). Reports stay plaintext
// regardless of the encrypt flag.
func (s *Store) SaveAnalysis(ctx context.Context, doc *Document, date string, reports map[string]string, encrypt bool) (string, error) {
	ctx, span := s.tracer.Start(ctx, "artifact.SaveAnalysis",
		trace.WithAttributes(attribute.String("ticker", doc.Ticker)))
	defer span.End()

	dir := filepath.Join(s.root, doc.Ticker, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("artifact: mkdir %s: %w", dir, err)
	}

	path := filepath.Join(dir, "analysis_result.json")
	if err := s.write(path, doc, encrypt); err != nil {
		span.RecordError(err)
		return "", err
	}

	if len(reports) > 0 {
		reportsDir := filepath.Join(dir, "reports")
		if err := os.MkdirAll(reportsDir, 0o755); err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("artifact: mkdir %s: %w", reportsDir, err)
		}
		for name, content := range reports {
			p := filepath.Join(reportsDir, name+".md")
			if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
				span.RecordError(err)
				return "", fmt.Errorf("artifact: write %s: %w", p, err)
			}
		}
	}

	s.metrics.save(ctx, encrypt)
	return path, nil
}

func (s *Store) write(path string, doc *Document, encrypt bool) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	if encrypt {
		return s.cipher.EncryptFile(path)
	}
	return nil
}

// Load reads the artifact at path without knowing its encoding. The probe
// order is fixed: plaintext JSON first, then decrypt-and-parse. Reversing
// it would change behavior on bytes that satisfy both interpretations.
func (s *Store) Load(ctx context.Context, path string) (*Document, error) {
	ctx, span := s.tracer.Start(ctx, "artifact.Load")
	defer span.End()

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.metrics.load(ctx, outcomeMissing)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		s.metrics.load(ctx, outcomeUnreadable)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err == nil {
		s.metrics.load(ctx, outcomePlaintext)
		return &doc, nil
	}

	plain, err := s.cipher.DecryptFile(path)
	if err != nil {
		s.metrics.load(ctx, outcomeUnreadable)
		s.log.Debug().Str("path", path).Err(err).Msg("artifact is neither plaintext nor decryptable")
		return nil, fmt.Errorf("%w: %s", ErrUnreadable, path)
	}
	if err := json.Unmarshal(plain, &doc); err != nil {
		s.metrics.load(ctx, outcomeUnreadable)
		return nil, fmt.Errorf("%w: %s: decrypted bytes are not valid JSON", ErrUnreadable, path)
	}

	s.metrics.load(ctx, outcomeDecrypted)
	return &doc, nil
}

// HistoryEntry is one row of the recent-runs table.
type HistoryEntry struct {
	Path    string
	ModTime time.Time
	Doc     *Document
}

// History returns up to limit live-run artifacts, newest first by file
// modification time. Unreadable artifacts are skipped so one corrupt file
// never breaks the listing. limit <= 0 means no limit.
func (s *Store) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	matches, err := filepath.Glob(filepath.Join(s.LiveDir(), "*.json"))
	if err != nil {
		return nil, fmt.Errorf("artifact: list live runs: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	candidates := make([]candidate, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: path, mod: info.ModTime()})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].mod.After(candidates[j].mod)
	})

	var entries []HistoryEntry
	for _, c := range candidates {
		if limit > 0 && len(entries) >= limit {
			break
		}
		doc, err := s.Load(ctx, c.path)
		if err != nil {
			s.log.Warn().Str("path", c.path).Err(err).Msg("skipping artifact")
			continue
		}
		entries = append(entries, HistoryEntry{Path: c.path, ModTime: c.mod, Doc: doc})
	}
	return entries, nil
}

// Tickers lists tickers that have on-demand results, sorted.
func (s *Store) Tickers() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artifact: read %s: %w", s.root, err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != "live" {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Dates lists the analysis dates available for ticker, sorted.
func (s *Store) Dates(ticker string) ([]string, error) {
	dir := filepath.Join(s.root, ticker)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artifact: read %s: %w", dir, err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Reports returns the markdown reports for ticker/date, keyed by report
// name without the .md suffix. Reports are always plaintext.
func (s *Store) Reports(ticker, date string) (map[string]string, error) {
	dir := filepath.Join(s.root, ticker, date, "reports")
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artifact: read %s: %w", dir, err)
	}

	reports := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("artifact: read report %s: %w", e.Name(), err)
		}
		reports[strings.TrimSuffix(e.Name(), ".md")] = string(content)
	}
	return reports, nil
}
