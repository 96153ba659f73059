package session

import (
	"context"
	"encoding/gob"
	"sync"

	"github.com/platinummonkey/hrms-lite/pkg/contextkeys"
)

const messagesKey = "_messages"

// Level is a flash message severity
type Level int

const (
	LevelDebug   Level = 10
	LevelInfo    Level = 20
	LevelSuccess Level = 25
	LevelWarning Level = 30
	LevelError   Level = 40
)

// Tag returns the CSS-friendly name of the level
func (l Level) Tag() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Message is a one-shot notice shown on the next rendered page
type Message struct {
	Level Level
	Text  string
}

// Tags returns the message's level tag
func (m Message) Tags() string { return m.Level.Tag() }

func (m Message) String() string { return m.Text }

func init() {
	gob.Register([]Message{})
}

// MessageStore queues flash messages in the session. Messages survive until
// they are read once.
type MessageStore struct {
	mu       sync.Mutex
	session  *Session
	queued   []Message
	added    []Message
	consumed bool
	minLevel Level
}

// NewMessageStore loads queued messages from s
func NewMessageStore(s *Session) *MessageStore {
	ms := &MessageStore{session: s, minLevel: LevelInfo}
	if s != nil {
		if v, ok := s.raw.Values[messagesKey].([]Message); ok {
			ms.queued = append(ms.queued, v...)
		}
	}
	return ms
}

// SetMinLevel drops future messages below level
func (ms *MessageStore) SetMinLevel(level Level) {
	ms.mu.Lock()
	ms.minLevel = level
	ms.mu.Unlock()
}

// Add queues a message. Messages below the minimum level are discarded.
func (ms *MessageStore) Add(level Level, text string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if level < ms.minLevel {
		return
	}
	ms.added = append(ms.added, Message{Level: level, Text: text})
}

// Messages returns and consumes all pending messages
func (ms *MessageStore) Messages() []Message {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	out := make([]Message, 0, len(ms.queued)+len(ms.added))
	out = append(out, ms.queued...)
	out = append(out, ms.added...)
	ms.queued = nil
	ms.added = nil
	ms.consumed = true
	return out
}

// Commit writes unread messages back to the session
func (ms *MessageStore) Commit() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.session == nil {
		return
	}
	if !ms.consumed && len(ms.added) == 0 {
		return
	}

	pending := append(append([]Message{}, ms.queued...), ms.added...)
	if len(pending) == 0 {
		ms.session.Delete(messagesKey)
		return
	}
	ms.session.Set(messagesKey, pending)
}

// WithMessages stores ms on ctx
func WithMessages(ctx context.Context, ms *MessageStore) context.Context {
	return context.WithValue(ctx, contextkeys.MessagesKey, ms)
}

// MessagesFromContext returns the request's message store, or nil
func MessagesFromContext(ctx context.Context) *MessageStore {
	ms, _ := ctx.Value(contextkeys.MessagesKey).(*MessageStore)
	return ms
}

// AddMessage queues a message on the request, if the messages middleware ran
func AddMessage(ctx context.Context, level Level, text string) bool {
	ms := MessagesFromContext(ctx)
	if ms == nil {
		return false
	}
	ms.Add(level, text)
	return true
}
