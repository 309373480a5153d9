// Package checkpoint persists run progress and the generated corpus so an
// interrupted batch can resume exactly where it stopped.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// File names inside the output directory.
const (
	StateFile      = "generation_state.json"
	CorpusFile     = "corpus.txt"
	snapshotPrefix = "corpus_backup_"
	snapshotSuffix = ".txt"
)

// ErrInvalidState is returned by Load when the state record is malformed.
var ErrInvalidState = errors.New("invalid checkpoint state")

// Recorder is notified after every successful save, e.g. to keep a
// checkpoint history. Its errors are logged, not returned.
type Recorder func(ctx context.Context, state RunState, corpusEntries int) error

// Store reads and writes checkpoints in a single output directory.
type Store struct {
	dir           string
	now           func() time.Time
	keepSnapshots int
	recorder      Recorder
	logger        *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps and snapshot names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithKeepSnapshots keeps only the newest n snapshots. Zero keeps all.
func WithKeepSnapshots(n int) Option {
	return func(s *Store) { s.keepSnapshots = n }
}

// WithRecorder registers fn to run after each save.
func WithRecorder(fn Recorder) Option {
	return func(s *Store) { s.recorder = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store rooted at dir. The directory is created on first save.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// StatePath returns the location of the state record.
func (s *Store) StatePath() string { return filepath.Join(s.dir, StateFile) }

// CorpusPath returns the location of the primary corpus file.
func (s *Store) CorpusPath() string { return filepath.Join(s.dir, CorpusFile) }

// Save persists corpus and state. The corpus and the state record are each
// replaced atomically; a timestamped snapshot of the corpus is written in
// between. Every write completes regardless of ctx, which is only handed to
// the recorder (without its cancellation).
func (s *Store) Save(ctx context.Context, state RunState, corpus []string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	now := s.now()
	state.Timestamp = now.Format(TimestampFormat)
	content := []byte(JoinCorpus(corpus))

	if err := writeAtomic(s.CorpusPath(), content); err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}

	snapshot := s.snapshotPath(now)
	if err := os.WriteFile(snapshot, content, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	raw, err := json.MarshalIndent(state, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := writeAtomic(s.StatePath(), raw); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	s.logger.Info("checkpoint saved",
		slog.Int("items_generated", state.ItemsGenerated),
		slog.Int64("chars_generated", state.CharsGenerated),
		slog.Int("cursor", state.Cursor),
		slog.Int("corpus_entries", len(corpus)),
		slog.String("snapshot", filepath.Base(snapshot)),
	)

	if s.keepSnapshots > 0 {
		if err := s.pruneSnapshots(); err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
	}

	if s.recorder != nil {
		if err := s.recorder(context.WithoutCancel(ctx), state, len(corpus)); err != nil {
			s.logger.Warn("failed to record checkpoint", slog.String("error", err.Error()))
		}
	}
	return nil
}

// Load reads the state record. A missing record is a fresh start and
// returns the zero state with found == false.
func (s *Store) Load() (state RunState, found bool, err error) {
	raw, err := os.ReadFile(s.StatePath())
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("no previous state found, starting fresh", slog.String("dir", s.dir))
		return RunState{}, false, nil
	}
	if err != nil {
		return RunState{}, false, fmt.Errorf("read state: %w", err)
	}

	if err := validateState(raw); err != nil {
		return RunState{}, false, fmt.Errorf("load %s: %w", StateFile, err)
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return RunState{}, false, fmt.Errorf("load %s: %w: %v", StateFile, ErrInvalidState, err)
	}

	s.logger.Info("loaded previous state",
		slog.Int("items_generated", state.ItemsGenerated),
		slog.Int64("chars_generated", state.CharsGenerated),
		slog.Int("cursor", state.Cursor),
		slog.String("timestamp", state.Timestamp),
	)
	return state, true, nil
}

// LoadCorpus reads the primary corpus file. A missing file yields no entries.
func (s *Store) LoadCorpus() ([]string, error) {
	raw, err := os.ReadFile(s.CorpusPath())
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return SplitCorpus(string(raw)), nil
}

// Snapshots returns snapshot file paths, oldest first.
func (s *Store) Snapshots() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	type snap struct {
		path string
		unix int64
	}
	var snaps []snap
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		unix, ok := parseSnapshotName(e.Name())
		if !ok {
			continue
		}
		snaps = append(snaps, snap{path: filepath.Join(s.dir, e.Name()), unix: unix})
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].unix < snaps[j].unix })

	paths := make([]string, len(snaps))
	for i, sn := range snaps {
		paths[i] = sn.path
	}
	return paths, nil
}

func (s *Store) pruneSnapshots() error {
	paths, err := s.Snapshots()
	if err != nil {
		return err
	}
	if len(paths) <= s.keepSnapshots {
		return nil
	}
	for _, p := range paths[:len(paths)-s.keepSnapshots] {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *Store) snapshotPath(t time.Time) string {
	return filepath.Join(s.dir, snapshotPrefix+strconv.FormatInt(t.Unix(), 10)+snapshotSuffix)
}

func parseSnapshotName(name string) (int64, bool) {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
		return 0, false
	}
	unix, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix), 10, 64)
	if err != nil {
		return 0, false
	}
	return unix, true
}
