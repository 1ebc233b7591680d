package conversation

import (
	"context"
	"time"

	"github.com/smith3v/tg-bible-reminder/pkg/db"
	"github.com/smith3v/tg-bible-reminder/pkg/store"
)

const DefaultTTL = 60 * time.Minute

// Manager persists which flow, if any, each chat is in. Expired rows are
// treated as absent.
type Manager struct {
	store store.Conversations
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(conversations store.Conversations, ttl time.Duration, now func() time.Time) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{store: conversations, ttl: ttl, now: now}
}

// Active returns the flow the chat is in.
func (m *Manager) Active(ctx context.Context, chatID int64) (Flow, bool, error) {
	state, err := m.store.Conversation(ctx, chatID, m.now().UTC())
	if err != nil {
		return "", false, err
	}
	if state == nil || State(state.State) != StateAwaitingInput {
		return "", false, nil
	}
	return Flow(state.Flow), true, nil
}

// Begin records the outcome of a flow's entry point. An entry that
// terminated immediately clears any previous flow.
func (m *Manager) Begin(ctx context.Context, chatID int64, flow Flow, out Outcome) error {
	return m.apply(ctx, chatID, flow, out)
}

// Advance feeds text to the chat's active flow. ok is false when no flow
// is active, in which case nothing is stored.
func (m *Manager) Advance(ctx context.Context, chatID int64, input string) (Flow, Outcome, bool, error) {
	flow, active, err := m.Active(ctx, chatID)
	if err != nil || !active {
		return "", Outcome{}, false, err
	}
	controller := ControllerFor(flow)
	if controller == nil {
		return flow, Outcome{}, false, m.End(ctx, chatID)
	}
	out := controller.Handle(input)
	if err := m.apply(ctx, chatID, flow, out); err != nil {
		return flow, out, true, err
	}
	return flow, out, true, nil
}

func (m *Manager) End(ctx context.Context, chatID int64) error {
	return m.store.DeleteConversation(ctx, chatID)
}

func (m *Manager) apply(ctx context.Context, chatID int64, flow Flow, out Outcome) error {
	if out.Terminated() {
		return m.End(ctx, chatID)
	}
	return m.store.SaveConversation(ctx, &db.ConversationState{
		ChatID:    chatID,
		Flow:      string(flow),
		State:     string(out.State),
		ExpiresAt: m.now().UTC().Add(m.ttl),
	})
}
