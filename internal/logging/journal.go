package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a journal entry.
type Level string

const (
	LevelInfo Level = "INFO"
	LevelWarn Level = "WARN"
)

// Event names what happened to a run.
type Event string

const (
	EventStarted   Event = "started"
	EventAdvanced  Event = "advanced"
	EventAsked     Event = "asked"
	EventCompleted Event = "completed"
	EventRejected  Event = "rejected"
	EventAbandoned Event = "abandoned"
)

// Entry is one line of a run journal: the cursor position and cost counters
// at the moment an event happened.
type Entry struct {
	Time      time.Time `json:"time"`
	Level     Level     `json:"level"`
	Event     Event     `json:"event"`
	Node      string    `json:"node,omitempty"`
	Actual    int       `json:"actual_units"`
	Remaining int       `json:"remaining_units"`
	Questions int       `json:"questions,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Journal persists the events of one run as JSON lines.
type Journal struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Record appends entry, stamping its time and defaulting its level to info.
// Write failures are dropped; the journal never blocks a run.
func (j *Journal) Record(entry Entry) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if entry.Time.IsZero() {
		entry.Time = j.now()
	}
	entry.Time = entry.Time.UTC()
	if entry.Level == "" {
		entry.Level = LevelInfo
	}
	entry.Message = strings.TrimSpace(entry.Message)
	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.Write(append(line, '\n'))
}

// Tail returns up to limit of the most recent entries and the total number of
// entries in the journal. Lines that do not decode are skipped.
func (j *Journal) Tail(limit int) ([]Entry, int) {
	if j == nil || limit <= 0 {
		return nil, 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	file, err := os.Open(j.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	total := len(entries)
	if total > limit {
		entries = entries[total-limit:]
	}
	return entries, total
}

// Journals hands out one journal file per run under a shared directory.
type Journals struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
	set map[string]*Journal
}

// NewJournals roots run journals at dir.
func NewJournals(dir string) (*Journals, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure journal dir: %w", err)
	}
	return &Journals{dir: dir, now: time.Now, set: map[string]*Journal{}}, nil
}

// Run returns the journal of runID, creating it on first use. A nil
// *Journals yields a nil journal, which ignores writes.
func (js *Journals) Run(runID string) *Journal {
	if js == nil {
		return nil
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	if j, ok := js.set[runID]; ok {
		return j
	}
	j := &Journal{path: filepath.Join(js.dir, runID+".jsonl"), now: js.now}
	js.set[runID] = j
	return j
}
