// Package audit provides the append-only, human-readable record of every
// privileged action. The recorder is constructed once at process start,
// injected into every component that needs it, and closed at shutdown.
package audit

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind labels the event being recorded.
type Kind string

const (
	KindLogin               Kind = "LOGIN"
	KindLoginFailed         Kind = "LOGIN_FAILED"
	KindLogout              Kind = "LOGOUT"
	KindTicketCreated       Kind = "TICKET_CREATED"
	KindTicketAssigned      Kind = "TICKET_ASSIGNED"
	KindCommentAdded        Kind = "COMMENT_ADDED"
	KindStatusChanged       Kind = "STATUS_CHANGED"
	KindTaskCreated         Kind = "TASK_CREATED"
	KindAccountCreated      Kind = "ACCOUNT_CREATED"
	KindAccountToggled      Kind = "ACCOUNT_STATUS"
	KindAreaChanged         Kind = "AREA_CHANGED"
	KindGroupsChanged       Kind = "GROUPS_CHANGED"
	KindPasswordChanged     Kind = "PASSWORD_CHANGED"
	KindAreaCreated         Kind = "AREA_CREATED"
	KindAnnouncementCreated Kind = "ANNOUNCEMENT_CREATED"
	KindExternalAccess      Kind = "EXTERNAL_ACCESS"
)

// Recorder appends audit lines and surfaces them for staff review.
type Recorder interface {
	// Record appends one line. It never returns an error to the caller:
	// a failed write falls back to the console sink.
	Record(kind Kind, actorUsername, details string)
	// Recent returns up to limit lines, most recent first.
	Recent(limit int) ([]string, error)
	Close() error
}

// fileRecorder writes one line per event to a single append-only file.
// A mutex serializes writers so concurrent records never interleave
// partial lines.
type fileRecorder struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	logger *zap.Logger
}

// NewFileRecorder opens (or creates) the audit log at path.
func NewFileRecorder(path string, logger *zap.Logger) (Recorder, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &fileRecorder{file: file, path: path, logger: logger}, nil
}

func (r *fileRecorder) Record(kind Kind, actorUsername, details string) {
	line := FormatLine(time.Now(), kind, actorUsername, details)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.file.WriteString(line + "\n"); err != nil {
		// Best-effort fallback: the primary mutation must not fail
		// because the audit sink is unavailable.
		r.logger.Error("audit write failed", zap.String("line", line), zap.Error(err))
	}
}

func (r *fileRecorder) Recent(limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return []string{}, nil
	}
	reversed := make([]string, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		reversed = append(reversed, lines[i])
		if limit > 0 && len(reversed) >= limit {
			break
		}
	}
	return reversed, nil
}

func (r *fileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

// FormatLine renders the canonical audit line.
func FormatLine(ts time.Time, kind Kind, actorUsername, details string) string {
	return fmt.Sprintf("%s %s: user '%s' %s", ts.Format(time.RFC3339), kind, actorUsername, details)
}
