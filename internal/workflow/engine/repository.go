package engine

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

	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/approval"
)

// Store persists runs and archives resolved approval requests.
type Store interface {
	LoadRun(ctx context.Context, id string) (Run, error)
	SaveRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context) ([]Run, error)
	SaveApproval(ctx context.Context, req approval.Request) error
	LoadApproval(ctx context.Context, id string) (approval.Request, error)
}

// FileStore keeps one JSON document per run and per approval under a state
// directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the root directory of the store.
func (s *FileStore) Dir() string {
	return s.dir
}

// LoadRun reads a persisted run.
func (s *FileStore) LoadRun(_ context.Context, id string) (Run, error) {
	var run Run
	if err := s.read(s.runPath(id), &run); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Run{}, fmt.Errorf("engine: run %s: %w", id, workflow.ErrRunNotFound)
		}
		return Run{}, fmt.Errorf("engine: load run %s: %w", id, err)
	}
	return run, nil
}

// SaveRun writes the run snapshot.
func (s *FileStore) SaveRun(_ context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("engine: run id is required")
	}
	return s.write(s.runPath(run.ID), run)
}

// ListRuns returns every stored run ordered by start time.
func (s *FileStore) ListRuns(ctx context.Context) ([]Run, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "runs"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("engine: list runs: %w", err)
	}
	var runs []Run
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		run, err := s.LoadRun(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].State.StartedAt.Before(runs[j].State.StartedAt)
	})
	return runs, nil
}

// SaveApproval archives a resolved approval request.
func (s *FileStore) SaveApproval(_ context.Context, req approval.Request) error {
	if req.ID == "" {
		return fmt.Errorf("engine: approval id is required")
	}
	return s.write(s.approvalPath(req.ID), req)
}

// LoadApproval reads an archived approval request.
func (s *FileStore) LoadApproval(_ context.Context, id string) (approval.Request, error) {
	var req approval.Request
	if err := s.read(s.approvalPath(id), &req); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return approval.Request{}, fmt.Errorf("engine: approval %s: %w", id, workflow.ErrRequestNotFound)
		}
		return approval.Request{}, fmt.Errorf("engine: load approval %s: %w", id, err)
	}
	return req, nil
}

func (s *FileStore) runPath(id string) string {
	return filepath.Join(s.dir, "runs", filepath.Base(id)+".json")
}

func (s *FileStore) approvalPath(id string) string {
	return filepath.Join(s.dir, "approvals", filepath.Base(id)+".json")
}

func (s *FileStore) read(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// write stores value with best-effort atomicity: a temp file renamed over
// the target.
func (s *FileStore) write(path string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(encoded, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
