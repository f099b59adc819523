package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "graph", "g1")

	out := strings.TrimSpace(buf.String())
	assert.NotContains(t, out, "hidden", "info line leaked at warn level")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entry), "expected one json line, got %q", out)
	assert.Equal(t, "g1", entry["graph"])
	assert.Equal(t, "shown", entry["msg"])
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseLevel(input), "ParseLevel(%q)", input)
	}
}

func TestOpenFileAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	for i := 0; i < 2; i++ {
		f, err := OpenFile(dir)
		require.NoError(t, err)
		New("info", "text", f).Info("line", "n", i)
		require.NoError(t, f.Close())
	}
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "msg=line"), "log file: %s", data)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()), "expected discard logger fallback")

	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New("info", "text", &buf))
	FromContext(ctx).Info("from ctx")
	assert.Contains(t, buf.String(), "from ctx")
}

func TestJournalTailReturnsRecentEntriesAndTotal(t *testing.T) {
	js, err := NewJournals(t.TempDir())
	require.NoError(t, err)
	journal := js.Run("run-1")
	for i := 0; i < 5; i++ {
		journal.Record(Entry{Event: EventAdvanced, Node: "n", Actual: i * 100, Remaining: 500 - i*100})
	}

	entries, total := journal.Tail(3)
	assert.Equal(t, 5, total)
	require.Len(t, entries, 3)
	for idx, want := range []int{200, 300, 400} {
		assert.Equal(t, want, entries[idx].Actual)
		assert.Equal(t, 500-want, entries[idx].Remaining)
	}
}

func TestJournalRecordStampsTimeAndLevel(t *testing.T) {
	js, err := NewJournals(t.TempDir())
	require.NoError(t, err)
	js.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("x", 3600)) }

	js.Run("a").Record(Entry{Event: EventStarted, Node: "start", Remaining: 7000, Message: "  graph g  "})
	js.Run("a").Record(Entry{Level: LevelWarn, Event: EventAbandoned, Node: "ask", Actual: 5000})

	entries, total := js.Run("a").Tail(10)
	require.Equal(t, 2, total)
	assert.Equal(t, Entry{
		Time:      time.Date(2026, 3, 4, 4, 6, 7, 0, time.UTC),
		Level:     LevelInfo,
		Event:     EventStarted,
		Node:      "start",
		Remaining: 7000,
		Message:   "graph g",
	}, entries[0])
	assert.Equal(t, LevelWarn, entries[1].Level)
	assert.Equal(t, EventAbandoned, entries[1].Event)
	assert.Equal(t, 5000, entries[1].Actual)
}

func TestJournalsPerRun(t *testing.T) {
	dir := t.TempDir()
	js, err := NewJournals(dir)
	require.NoError(t, err)
	js.Run("a").Record(Entry{Level: LevelWarn, Event: EventRejected, Message: "first"})
	js.Run("b").Record(Entry{Event: EventStarted, Message: "second"})
	js.Run("a").Record(Entry{Event: EventAsked, Questions: 2})

	assert.Same(t, js.Run("a"), js.Run("a"))
	entries, total := js.Run("a").Tail(10)
	require.Equal(t, 2, total)
	assert.Equal(t, LevelWarn, entries[0].Level)
	assert.Equal(t, 2, entries[1].Questions)
	assert.FileExists(t, filepath.Join(dir, "b.jsonl"))

	var none *Journals
	none.Run("x").Record(Entry{Event: EventStarted})
	got, n := none.Run("x").Tail(5)
	assert.Nil(t, got)
	assert.Zero(t, n)
}

func TestJournalTailSkipsUndecodableLines(t *testing.T) {
	dir := t.TempDir()
	js, err := NewJournals(dir)
	require.NoError(t, err)
	js.Run("r").Record(Entry{Event: EventStarted})
	f, err := os.OpenFile(filepath.Join(dir, "r.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	js.Run("r").Record(Entry{Event: EventCompleted})

	entries, total := js.Run("r").Tail(10)
	assert.Equal(t, 2, total)
	assert.Equal(t, EventCompleted, entries[1].Event)
}
