// Package transcript writes assistant conversations to per-session NDJSON
// files for later review.
package transcript

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
)

// Event types.
const (
	EventUserMessage = "chat_user_message"
	EventBotReply    = "chat_bot_reply"
	EventBotFailure  = "chat_bot_failure"
	EventCleared     = "chat_cleared"
)

// Directions relative to this client.
const (
	Outbound = "outbound"
	Inbound  = "inbound"
)

// Event is one transcript line.
type Event struct {
	Time       string `json:"ts"`
	User       string `json:"user,omitempty"`
	SessionID  string `json:"session_id"`
	Direction  string `json:"direction,omitempty"`
	EventType  string `json:"event_type"`
	Content    string `json:"content,omitempty"`
	ContentRaw string `json:"content_raw,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Logger records transcript events. Log never blocks.
type Logger interface {
	Log(Event)
	Close() error
}

// Config controls transcript logging.
type Config struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Nop discards every event.
type Nop struct{}

func (Nop) Log(Event)    {}
func (Nop) Close() error { return nil }

// New returns a file-backed Logger, or Nop when logging is disabled.
func New(cfg Config, logger *slog.Logger) (Logger, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("transcript directory cannot be empty")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}

	fl := &fileLogger{
		dir:   cfg.Dir,
		queue: make(chan Event, cfg.QueueSize),
		files: make(map[string]*os.File),
		log:   logger,
		now:   time.Now,
	}
	fl.wg.Add(1)
	go fl.process()
	return fl, nil
}

type fileLogger struct {
	dir   string
	queue chan Event
	log   *slog.Logger
	now   func() time.Time
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	files map[string]*os.File // owned by process
}

// Log queues ev. Events are dropped when the queue is full or the logger is
// closed.
func (l *fileLogger) Log(ev Event) {
	if ev.Time == "" {
		ev.Time = l.now().UTC().Format(domain.TimestampLayout)
	}
	if ev.Content == "" && ev.ContentRaw != "" {
		ev.Content = cleanForReadability(ev.ContentRaw)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- ev:
	default:
		l.log.Warn("Transcript queue full, dropping event", "session_id", ev.SessionID, "event_type", ev.EventType)
	}
}

func (l *fileLogger) process() {
	defer l.wg.Done()
	for ev := range l.queue {
		if err := l.write(ev); err != nil {
			l.log.Error("Failed to write transcript event", "session_id", ev.SessionID, "error", err)
		}
	}
}

func (l *fileLogger) write(ev Event) error {
	path := l.pathFor(ev)
	f, ok := l.files[path]
	if !ok {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create transcript directory: %w", err)
		}
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open transcript: %w", err)
		}
		l.files[path] = f
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = f.Write(append(line, '\n'))
	return err
}

func (l *fileLogger) pathFor(ev Event) string {
	user := safeName(ev.User)
	if user == "" {
		user = "anonymous"
	}
	session := safeName(ev.SessionID)
	if session == "" {
		session = "unknown"
	}
	return filepath.Join(l.dir, user, session+".ndjson")
}

// Close flushes queued events and closes every file.
func (l *fileLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	l.wg.Wait()

	var firstErr error
	for path, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", path, err)
		}
	}
	return firstErr
}

// cleanForReadability strips terminal escape sequences and control
// characters other than newlines and tabs.
func cleanForReadability(raw string) string {
	s := ansi.Strip(raw)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// safeName keeps a path component inside the transcript directory.
func safeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.' || r == '@':
			return r
		default:
			return '_'
		}
	}, s)
	return strings.Trim(s, ".")
}
