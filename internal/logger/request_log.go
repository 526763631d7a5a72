package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Anonymous is written in place of a user id when the request carries no identity.
const Anonymous = "Anonymous"

// RequestLog is the append-only sink the request pipeline writes to.
// One line per request, plus tagged lines for blocked requests.
type RequestLog interface {
	Request(at time.Time, user, path string)
	Blocked(at time.Time, user, path string)
	RateLimited(at time.Time, ip, path string)
	Close() error
}

// WriterRequestLog writes lines to an io.Writer. Writes are serialized.
type WriterRequestLog struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// NewRequestLog wraps w. If w is also an io.Closer it is closed by Close.
func NewRequestLog(w io.Writer) *WriterRequestLog {
	l := &WriterRequestLog{w: w}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}
	return l
}

// OpenRequestLog opens (or creates) the file at path in append mode.
func OpenRequestLog(path string) (*WriterRequestLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create request log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open request log %s: %w", path, err)
	}
	return NewRequestLog(f), nil
}

// FormatRequestLine renders "<ts> - User: <user> - Path: <path>".
func FormatRequestLine(at time.Time, user, path string) string {
	return fmt.Sprintf("%s - User: %s - Path: %s", at.Format(time.RFC3339), userOrAnonymous(user), path)
}

func (l *WriterRequestLog) Request(at time.Time, user, path string) {
	l.write(FormatRequestLine(at, user, path))
}

func (l *WriterRequestLog) Blocked(at time.Time, user, path string) {
	l.write(fmt.Sprintf("%s - BLOCK (outside allowed hours) - User: %s - Path: %s",
		at.Format(time.RFC3339), userOrAnonymous(user), path))
}

func (l *WriterRequestLog) RateLimited(at time.Time, ip, path string) {
	l.write(fmt.Sprintf("%s - RATE_LIMIT (too many requests) - IP: %s - Path: %s",
		at.Format(time.RFC3339), ip, path))
}

func (l *WriterRequestLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	l.w = io.Discard
	return err
}

func (l *WriterRequestLog) write(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := io.WriteString(l.w, line+"\n"); err != nil {
		// The sink never fails a request.
		Warn("request log write failed", "error", err)
	}
}

func userOrAnonymous(user string) string {
	if user == "" {
		return Anonymous
	}
	return user
}
