package audit_test

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/audit"
)

func newRecorder(t *testing.T) audit.Recorder {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.log")
	recorder, err := audit.NewFileRecorder(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = recorder.Close() })
	return recorder
}

func TestFormatLine(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	line := audit.FormatLine(ts, audit.KindTicketAssigned, "dana", "was assigned ticket #tck-1 by first comment")
	require.Equal(t, "2026-03-14T09:26:53Z TICKET_ASSIGNED: user 'dana' was assigned ticket #tck-1 by first comment", line)
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	recorder := newRecorder(t)

	recorder.Record(audit.KindLogin, "dana", "logged in")
	recorder.Record(audit.KindTicketCreated, "dana", "created ticket #tck-1 'Printer jam'")
	recorder.Record(audit.KindLogout, "dana", "logged out")

	lines, err := recorder.Recent(0)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "LOGOUT:")
	require.Contains(t, lines[1], "TICKET_CREATED:")
	require.Contains(t, lines[2], "LOGIN:")
}

func TestRecentHonorsLimit(t *testing.T) {
	recorder := newRecorder(t)
	for i := 0; i < 10; i++ {
		recorder.Record(audit.KindCommentAdded, "dana", fmt.Sprintf("commented on ticket #tck-%d", i))
	}

	lines, err := recorder.Recent(4)
	require.NoError(t, err)
	require.Len(t, lines, 4)
	require.Contains(t, lines[0], "#tck-9")
	require.Contains(t, lines[3], "#tck-6")
}

func TestRecentOnEmptyLog(t *testing.T) {
	recorder := newRecorder(t)
	lines, err := recorder.Recent(10)
	require.NoError(t, err)
	require.Empty(t, lines)
}

// Concurrent records never interleave partial lines.
func TestConcurrentRecords(t *testing.T) {
	recorder := newRecorder(t)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			recorder.Record(audit.KindCommentAdded, fmt.Sprintf("user%d", n), "commented on ticket #tck-1")
		}(i)
	}
	wg.Wait()

	lines, err := recorder.Recent(0)
	require.NoError(t, err)
	require.Len(t, lines, writers)
	for _, line := range lines {
		require.True(t, strings.Contains(line, "COMMENT_ADDED: user 'user"), line)
		require.True(t, strings.HasSuffix(line, "commented on ticket #tck-1"), line)
	}
}
