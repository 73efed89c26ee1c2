package store

import (
	"time"

	"ircgateway/internal/metrics"
	"ircgateway/internal/models"
)

// InsertModerationAction appends an audit row for a moderation effect.
func (s *Store) InsertModerationAction(a *models.ModerationAction) (*models.ModerationAction, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id, err := newID()
	if err != nil {
		return nil, err
	}
	a.ActionID = id
	a.CreatedAt = time.Now()

	s.doc.ModerationActions = append(s.doc.ModerationActions, a)
	s.markDirty()

	metrics.ModerationActionsTotal.WithLabelValues(string(a.ActionType)).Inc()
	return a, nil
}

// ListBots returns every registered bot, pre-seeding an "echo" bot on first
// access if none have ever been registered.
func (s *Store) ListBots() []*models.Bot {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.doc.BotApps) == 0 {
		id, err := newID()
		if err == nil {
			s.doc.BotApps = append(s.doc.BotApps, &models.Bot{
				BotID:       id,
				Name:        "echo",
				Version:     "1.0.0",
				Permissions: []string{"channel:post"},
				CreatedAt:   time.Now(),
			})
			s.markDirty()
		}
	}

	out := make([]*models.Bot, len(s.doc.BotApps))
	copy(out, s.doc.BotApps)
	return out
}

// Bot returns a registered bot by ID.
func (s *Store) Bot(botID string) (*models.Bot, bool) {
	for _, b := range s.ListBots() {
		if b.BotID == botID {
			return b, true
		}
	}
	return nil, false
}

// InsertAuditEvent appends a generic category-tagged audit row.
func (s *Store) InsertAuditEvent(category, actor string, payload any) (*models.AuditEvent, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id, err := newID()
	if err != nil {
		return nil, err
	}
	ev := &models.AuditEvent{
		EventID:   id,
		Category:  category,
		Actor:     actor,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	s.doc.AuditEvents = append(s.doc.AuditEvents, ev)
	s.markDirty()
	return ev, nil
}
