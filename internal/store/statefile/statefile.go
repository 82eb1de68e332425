// Package statefile persists the local store as a single JSON document on
// disk. All mutations flow through one writer goroutine, so concurrent
// callers serialize instead of clobbering each other's saves. External
// writes to the file are detected via fsnotify, logged, and adopted
// last-write-wins.
package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/metrics"
)

// SchemaVersion is bumped whenever the on-disk layout changes incompatibly.
// A file with any other schema version is discarded wholesale.
const SchemaVersion = 1

type schema struct {
	SchemaVersion int                                  `json:"schema_version"`
	Fingerprint   string                               `json:"contract_fingerprint"`
	Version       int64                                `json:"version"`
	Enrichments   map[string]model.AgreementEnrichment `json:"enrichments"`
	Certificates  map[string]model.Certificate         `json:"certificates"`
	Claims        []model.Claim                        `json:"claims"`
	History       []model.HistoryEntry                 `json:"history"`
}

func emptySchema(fingerprint string) *schema {
	return &schema{
		SchemaVersion: SchemaVersion,
		Fingerprint:   fingerprint,
		Enrichments:   map[string]model.AgreementEnrichment{},
		Certificates:  map[string]model.Certificate{},
	}
}

type mutation struct {
	apply func(*schema)
	done  chan error
}

// Store is the file-backed Repository implementation. Reads serve from the
// in-memory copy; writes are applied and flushed by the Run goroutine.
type Store struct {
	path        string
	fingerprint string
	logger      *slog.Logger

	mu    sync.RWMutex
	state *schema

	mutations chan mutation
}

// Open loads the state file, or starts fresh when it is missing, has an
// unknown schema version, or was written for a different set of contract
// addresses. The fingerprint is any stable encoding of the configured
// contract addresses.
func Open(path, fingerprint string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:        path,
		fingerprint: fingerprint,
		logger:      logger.With("component", "store"),
		mutations:   make(chan mutation),
	}

	state, err := s.loadFile()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		state = emptySchema(fingerprint)
		s.logger.Info("starting with fresh state", "path", path)
	case err != nil:
		state = emptySchema(fingerprint)
		s.logger.Warn("state file unreadable, resetting", "path", path, "error", err)
	case state.SchemaVersion != SchemaVersion:
		s.logger.Warn("state schema version mismatch, resetting",
			"path", path, "found", state.SchemaVersion, "want", SchemaVersion)
		state = emptySchema(fingerprint)
	case state.Fingerprint != fingerprint:
		s.logger.Warn("contract addresses changed, resetting local state",
			"path", path, "found", state.Fingerprint)
		state = emptySchema(fingerprint)
	}
	s.state = state
	return s, nil
}

func (s *Store) loadFile() (*schema, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var state schema
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	if state.Enrichments == nil {
		state.Enrichments = map[string]model.AgreementEnrichment{}
	}
	if state.Certificates == nil {
		state.Certificates = map[string]model.Certificate{}
	}
	return &state, nil
}

// Run owns all mutations and the external-change watcher. It must be running
// for update calls to make progress; start it once alongside the other
// long-lived goroutines.
func (s *Store) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("state watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and other processes replace files by
	// rename, which a direct file watch loses track of.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-s.mutations:
			m.done <- s.commit(m.apply)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				s.reloadIfExternal()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("state watcher error", "error", err)
		}
	}
}

// commit applies one mutation, bumps the version and flushes to disk. Runs
// only on the Run goroutine.
func (s *Store) commit(apply func(*schema)) error {
	s.mu.Lock()
	apply(s.state)
	s.state.Version++
	snapshot := *s.state
	s.mu.Unlock()

	if err := s.save(&snapshot); err != nil {
		return err
	}
	metrics.StoreSavesTotal.Inc()
	return nil
}

// save writes atomically: temp file in the same directory, then rename.
func (s *Store) save(state *schema) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".smartvow-state-*")
	if err != nil {
		return fmt.Errorf("temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// reloadIfExternal re-reads the file after a change event. Our own saves
// land with the version we just committed; anything else is an external
// writer and wins (last write wins), with a warning.
func (s *Store) reloadIfExternal() {
	loaded, err := s.loadFile()
	if err != nil {
		s.logger.Warn("state file changed but unreadable, keeping in-memory state", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if loaded.Version == s.state.Version && loaded.Fingerprint == s.state.Fingerprint {
		return // our own write landing
	}

	metrics.StoreExternalWrites.Inc()
	s.logger.Warn("external write to state file, adopting its contents",
		"path", s.path, "memory_version", s.state.Version, "file_version", loaded.Version)

	if loaded.SchemaVersion != SchemaVersion || loaded.Fingerprint != s.fingerprint {
		s.state = emptySchema(s.fingerprint)
		return
	}
	s.state = loaded
}

// update submits a mutation to the writer goroutine and waits for the commit.
func (s *Store) update(ctx context.Context, apply func(*schema)) error {
	m := mutation{apply: apply, done: make(chan error, 1)}
	select {
	case s.mutations <- m:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-m.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Version returns the current monotonic state revision.
func (s *Store) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Version
}

func (s *Store) SaveEnrichment(ctx context.Context, e model.AgreementEnrichment) error {
	return s.update(ctx, func(st *schema) {
		st.Enrichments[strconv.FormatInt(e.VowID, 10)] = e
	})
}

func (s *Store) Enrichment(vowID int64) (model.AgreementEnrichment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.state.Enrichments[strconv.FormatInt(vowID, 10)]
	return e, ok
}

func (s *Store) SaveCertificate(ctx context.Context, c model.Certificate) error {
	return s.update(ctx, func(st *schema) {
		st.Certificates[c.ID] = c
	})
}

func (s *Store) Certificate(id string) (model.Certificate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.Certificates[id]
	return c, ok
}

func (s *Store) Certificates() []model.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Certificate, 0, len(s.state.Certificates))
	for _, c := range s.state.Certificates {
		out = append(out, c)
	}
	return out
}

func (s *Store) SaveClaim(ctx context.Context, c model.Claim) error {
	return s.update(ctx, func(st *schema) {
		st.Claims = append(st.Claims, c)
	})
}

func (s *Store) Claims(vowID int64) []model.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Claim
	for _, c := range s.state.Claims {
		if c.VowID == vowID {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) AppendHistory(ctx context.Context, entry model.HistoryEntry) error {
	return s.update(ctx, func(st *schema) {
		st.History = append(st.History, entry)
	})
}

func (s *Store) History(account string) []model.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.HistoryEntry
	for _, e := range s.state.History {
		if model.EqualAddress(e.Account, account) || model.EqualAddress(e.Counterparty, account) {
			out = append(out, e)
		}
	}
	return out
}
