package agentloop

import (
	"fmt"
	"strings"

	"github.com/martinemde/strand/eventlog"
)

// RenderReplay re-renders a session's full transcript from its event log:
// a header framing the session, one display line per event in append
// order, and a footer with the event count. It is a pure read and
// tolerates logs of any length, including empty ones.
func RenderReplay(sessionID string, log *eventlog.Log) string {
	rule := strings.Repeat("=", 60)
	events := log.Events()

	lines := []string{
		fmt.Sprintf("📼 Session Replay: %s", sessionID),
		fmt.Sprintf("📁 Location: %s", log.SessionDir()),
		fmt.Sprintf("📊 Total Events: %d", len(events)),
		"",
		rule,
		"",
	}

	if len(events) == 0 {
		lines = append(lines, "(no events)")
	}
	for _, ev := range events {
		lines = append(lines, ev.DisplayString())
	}

	lines = append(lines, "", rule, fmt.Sprintf("✅ Session replay complete (%d events)", len(events)))
	return strings.Join(lines, "\n")
}
