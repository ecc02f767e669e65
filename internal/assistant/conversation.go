// Package assistant runs one conversation with the hostel assistant bot:
// serialized turns, typing delays, and persisted history.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
	"github.com/tanmayyjais/hostelMate-frontend/internal/nlu"
	"github.com/tanmayyjais/hostelMate-frontend/internal/store"
	"github.com/tanmayyjais/hostelMate-frontend/internal/transcript"
)

// Bot replies used when the service gives nothing usable.
const (
	FallbackReply = "Sorry, I didn't understand that. Could you rephrase?"
	FailureReply  = "I'm having trouble connecting right now. Please try again later."
)

var (
	// ErrTurnPending is returned by Submit while a reply is outstanding.
	ErrTurnPending = errors.New("a reply is still pending")
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrMessageTooLong is returned for input over the character limit.
	ErrMessageTooLong = fmt.Errorf("message exceeds %d characters", domain.MaxUserMessageLength)
)

// Greeting is shown while the conversation is empty.
type Greeting struct {
	Title      string
	Text       string
	Suggestion string
}

// DefaultGreeting is the greeting of the college assistant.
var DefaultGreeting = Greeting{
	Title:      "Hello there! 👋",
	Text:       "I'm the College Assistant. How can I help you today?",
	Suggestion: "Tell me about campus facilities",
}

// Snapshot is the observable state of a conversation.
type Snapshot struct {
	Messages     []domain.Message
	Pending      bool
	ShowGreeting bool
}

// Config configures a Conversation. Zero values select defaults.
type Config struct {
	Bot            nlu.Bot
	Policy         Policy
	Clock          clockwork.Clock
	RequestTimeout time.Duration
	Logger         *slog.Logger
	// Transcript receives every turn. User labels its entries.
	Transcript transcript.Logger
	User       string
}

// Conversation is safe for concurrent use.
type Conversation struct {
	store     store.Store
	nlu       nlu.Recognizer
	bot       nlu.Bot
	policy    Policy
	clock     clockwork.Clock
	timeout   time.Duration
	log       *slog.Logger
	sessionID string
	tr        transcript.Logger
	user      string

	persistMu sync.Mutex

	mu        sync.Mutex
	messages  []domain.Message
	pending   bool
	greeting  bool
	epoch     uint64 // bumped by Clear; turns from an older epoch are detached
	observers map[int]func(Snapshot)
	nextObs   int
}

// New creates an empty conversation with a fresh session id.
func New(s store.Store, r nlu.Recognizer, cfg Config) *Conversation {
	c := &Conversation{
		store:     s,
		nlu:       r,
		bot:       cfg.Bot,
		policy:    cfg.Policy,
		clock:     cfg.Clock,
		timeout:   cfg.RequestTimeout,
		log:       cfg.Logger,
		sessionID: uuid.NewString(),
		tr:        cfg.Transcript,
		user:      cfg.User,
		greeting:  true,
		observers: make(map[int]func(Snapshot)),
	}
	if c.policy == (Policy{}) {
		c.policy = DefaultPolicy()
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.timeout <= 0 {
		c.timeout = 15 * time.Second
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.tr == nil {
		c.tr = transcript.Nop{}
	}
	c.log = c.log.With("session_id", c.sessionID)
	return c
}

// SessionID returns the id sent with every turn of this conversation.
func (c *Conversation) SessionID() string { return c.sessionID }

// Snapshot returns the current state.
func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Conversation) snapshotLocked() Snapshot {
	return Snapshot{
		Messages:     slices.Clone(c.messages),
		Pending:      c.pending,
		ShowGreeting: c.greeting && len(c.messages) == 0,
	}
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []domain.Message {
	return c.Snapshot().Messages
}

// Subscribe registers fn to be called after every change. The returned func
// removes the subscription.
func (c *Conversation) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Conversation) notify() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	observers := make([]func(Snapshot), 0, len(c.observers))
	for _, o := range c.observers {
		observers = append(observers, o)
	}
	c.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}

// Load replaces the in-memory history with the persisted one. Missing or
// corrupt history leaves the conversation empty; corrupt data is logged.
func (c *Conversation) Load(ctx context.Context) error {
	raw, ok, err := c.store.Get(ctx, store.KeyChat)
	if err != nil {
		return fmt.Errorf("load chat: %w", err)
	}

	var msgs []domain.Message
	if ok {
		msgs = c.decode(raw)
	}

	c.mu.Lock()
	c.messages = msgs
	if len(msgs) > 0 {
		c.greeting = false
	}
	c.mu.Unlock()

	c.log.Debug("chat history loaded", "messages", len(msgs))
	c.notify()
	return nil
}

func (c *Conversation) decode(raw string) []domain.Message {
	var msgs []domain.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		c.log.Warn("Persisted chat is corrupt, starting empty", "error", &domain.Error{Kind: domain.KindCorruption, Op: "load chat", Err: err})
		return nil
	}

	valid := msgs[:0]
	for _, m := range msgs {
		if m.Sender != domain.SenderUser && m.Sender != domain.SenderBot {
			c.log.Warn("Dropping persisted message with unknown sender", "sender", m.Sender)
			continue
		}
		if _, err := m.Time(); err != nil {
			c.log.Warn("Dropping persisted message with bad timestamp", "error", err)
			continue
		}
		valid = append(valid, m)
	}
	return valid
}

// Submit appends a user message and starts a turn. The returned channel is
// closed once the turn has resolved (or was detached by Clear). The user
// message is persisted before the remote request is made.
func (c *Conversation) Submit(ctx context.Context, text string) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return nil, ErrTurnPending
	}
	text = strings.TrimSpace(text)
	if text == "" {
		c.mu.Unlock()
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > domain.MaxUserMessageLength {
		c.mu.Unlock()
		return nil, ErrMessageTooLong
	}

	c.messages = append(c.messages, domain.NewMessage(domain.SenderUser, text, c.clock.Now()))
	c.pending = true
	c.greeting = false
	epoch := c.epoch
	c.mu.Unlock()

	if err := c.persist(ctx, epoch); err != nil {
		c.log.Error("Failed to persist chat", "error", err)
	}
	c.notify()
	c.record(transcript.Event{Direction: transcript.Outbound, EventType: transcript.EventUserMessage, ContentRaw: text})

	done := make(chan struct{})
	go c.runTurn(epoch, text, done)
	return done, nil
}

func (c *Conversation) runTurn(epoch uint64, text string, done chan<- struct{}) {
	defer close(done)

	c.clock.Sleep(c.policy.ThinkTime)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	resp, err := c.nlu.RecognizeText(ctx, c.bot.NewRequest(c.sessionID, text))
	cancel()

	var (
		reply string
		delay time.Duration
	)
	ev := transcript.Event{Direction: transcript.Inbound, EventType: transcript.EventBotReply}
	if err != nil {
		c.log.Warn("Assistant request failed", "kind", domain.KindOf(err), "error", err)
		reply, delay = FailureReply, c.policy.FailureDelay
		ev.EventType, ev.Error = transcript.EventBotFailure, err.Error()
	} else {
		reply = resp.FirstText()
		if reply == "" {
			reply = FallbackReply
		}
		delay = c.policy.DisplayDelay(reply)
	}

	c.clock.Sleep(delay)
	ev.ContentRaw = reply
	c.deliver(epoch, reply, ev)
}

func (c *Conversation) deliver(epoch uint64, reply string, ev transcript.Event) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.log.Debug("Discarding reply for cleared conversation")
		return
	}
	c.messages = append(c.messages, domain.NewMessage(domain.SenderBot, reply, c.clock.Now()))
	c.pending = false
	c.mu.Unlock()

	if err := c.persist(context.Background(), epoch); err != nil {
		c.log.Error("Failed to persist chat", "error", err)
	}
	c.notify()
	c.record(ev)
}

func (c *Conversation) record(ev transcript.Event) {
	ev.SessionID, ev.User = c.sessionID, c.user
	c.tr.Log(ev)
}

// persist writes the current history if epoch is still current.
func (c *Conversation) persist(ctx context.Context, epoch uint64) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	if epoch != c.epoch || len(c.messages) == 0 {
		c.mu.Unlock()
		return nil
	}
	msgs := slices.Clone(c.messages)
	c.mu.Unlock()

	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode chat: %w", err)
	}
	if err := c.store.Set(ctx, store.KeyChat, string(data)); err != nil {
		return fmt.Errorf("save chat: %w", err)
	}
	return nil
}

// Clear empties the conversation, removes the persisted history and shows
// the greeting again. An in-flight turn is detached and its reply discarded.
func (c *Conversation) Clear(ctx context.Context) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	c.epoch++
	c.messages = nil
	c.pending = false
	c.greeting = true
	c.mu.Unlock()

	err := c.store.Remove(ctx, store.KeyChat)
	c.notify()
	c.record(transcript.Event{EventType: transcript.EventCleared})
	if err != nil {
		return fmt.Errorf("clear chat: %w", err)
	}
	return nil
}
