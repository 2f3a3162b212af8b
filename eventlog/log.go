package eventlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the log file created inside every session directory.
const FileName = "events.jsonl"

// ErrReadOnly is returned by Append on a log opened with OpenReadOnly.
var ErrReadOnly = errors.New("eventlog: log is read-only")

// Log is the ordered, append-only event sequence for one session, backed
// by a JSONL file and mirrored eagerly in memory.
//
// A session has exactly one writing Log, owned by the control loop.
// Readers (replay, synthesis, listing) open independent read-only handles.
// The in-memory mirror is always a prefix-complete, order-preserving copy
// of the file: Append persists before returning, and every other method is
// a pure read over the current snapshot.
type Log struct {
	sessionDir string
	path       string
	events     []Event
	file       *os.File // nil for read-only handles
}

// Open creates the session directory if needed, loads any previously
// persisted events in file order, and returns a writable Log. A malformed
// persisted record fails Open: a corrupt log is never partially trusted.
func Open(sessionDir string) (*Log, error) {
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("eventlog: create session dir: %w", err)
	}

	l := &Log{
		sessionDir: sessionDir,
		path:       filepath.Join(sessionDir, FileName),
	}
	if err := l.load(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open %s: %w", l.path, err)
	}
	l.file = f
	return l, nil
}

// OpenReadOnly loads the session's events without taking the writer role.
// Append on the returned Log always fails with ErrReadOnly.
func OpenReadOnly(sessionDir string) (*Log, error) {
	l := &Log{
		sessionDir: sessionDir,
		path:       filepath.Join(sessionDir, FileName),
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Log) load() error {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("eventlog: open %s: %w", l.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return fmt.Errorf("eventlog: malformed record at %s:%d: %w", l.path, lineNo, err)
		}
		l.events = append(l.events, ev)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("eventlog: read %s: %w", l.path, err)
	}
	return nil
}

// Append adds the event to the in-memory sequence and durably persists it
// as one JSONL record before returning. On a persistence error the event
// is not considered appended and the error propagates; the loop treats
// that as fatal for the whole run.
func (l *Log) Append(ev Event) error {
	if l.file == nil {
		return ErrReadOnly
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("eventlog: marshal event: %w", err)
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("eventlog: persist event: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("eventlog: sync event: %w", err)
	}

	l.events = append(l.events, ev)
	return nil
}

// Close releases the writer's file handle. Read methods remain usable.
func (l *Log) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Len returns the number of events in the log.
func (l *Log) Len() int { return len(l.events) }

// Path returns the location of the backing JSONL file.
func (l *Log) Path() string { return l.path }

// SessionDir returns the session directory the log lives in.
func (l *Log) SessionDir() string { return l.sessionDir }

// Events returns a copy of all events in append order.
func (l *Log) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Recent returns the last n events in original order, or all events if
// fewer than n exist.
func (l *Log) Recent(n int) []Event {
	if n <= 0 || n >= len(l.events) {
		return l.Events()
	}
	out := make([]Event, n)
	copy(out, l.events[len(l.events)-n:])
	return out
}

// ByType returns all events of the given type, preserving append order.
func (l *Log) ByType(t Type) []Event {
	var out []Event
	for _, ev := range l.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// LastObservation returns the most recent observation event, or false if
// no step has produced one yet.
func (l *Log) LastObservation() (Event, bool) {
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Type == TypeObservationRecorded {
			return l.events[i], true
		}
	}
	return Event{}, false
}

// ContextString renders the most recent limit events (all, if limit <= 0)
// as a deterministic transcript, one display line per event in original
// order. This is the only channel through which the control loop gives
// the planner situational memory.
func (l *Log) ContextString(limit int) string {
	events := l.Events()
	if limit > 0 {
		events = l.Recent(limit)
	}
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, ev.DisplayString())
	}
	return strings.Join(lines, "\n")
}
