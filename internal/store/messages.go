package store

import (
	"sort"
	"strings"
	"time"

	"ircgateway/internal/models"

	"ircgateway/internal/metrics"
)

// indexOf returns the position of messageID in s.doc.Messages, or -1. It is a
// plain linear scan; there is no side index. Caller must hold s.mutex.
func (s *Store) indexOf(messageID string) int {
	for i, m := range s.doc.Messages {
		if m.MessageID == messageID {
			return i
		}
	}
	return -1
}

// InsertMessage mints an ID and timestamp and appends the record, which
// establishes the store's total insertion order for fan-out.
func (s *Store) InsertMessage(m *models.Message) (*models.Message, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id, err := newID()
	if err != nil {
		return nil, err
	}
	m.MessageID = id
	m.Timestamp = time.Now()
	if m.Reactions == nil {
		m.Reactions = []models.Reaction{}
	}

	s.doc.Messages = append(s.doc.Messages, m)
	s.markDirty()

	metrics.MessagesTotal.WithLabelValues(string(m.Scope.Kind)).Inc()
	return m, nil
}

// FindMessage returns the record by ID regardless of tombstone state, for
// audit and replay-suppression lookups.
func (s *Store) FindMessage(messageID string) (*models.Message, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	i := s.indexOf(messageID)
	if i < 0 {
		return nil, false
	}
	return s.doc.Messages[i], true
}

// EditMessage replaces the body, preserving MessageID, Scope, SenderAlias,
// Timestamp, and Reactions.
func (s *Store) EditMessage(messageID, body string) (*models.Message, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	i := s.indexOf(messageID)
	if i < 0 {
		return nil, false
	}
	m := s.doc.Messages[i]
	m.Body = body
	s.markDirty()
	return m, true
}

// DeleteMessage tombstones the record in place.
func (s *Store) DeleteMessage(messageID string) (*models.Message, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	i := s.indexOf(messageID)
	if i < 0 {
		return nil, false
	}
	m := s.doc.Messages[i]
	if m.DeletedAt == nil {
		now := time.Now()
		m.DeletedAt = &now
		s.markDirty()
	}
	return m, true
}

// ToggleReaction enforces that within a message, each (emoji, alias) pair
// appears at most once. added reports whether the reaction was newly added
// (true) or removed (false).
func (s *Store) ToggleReaction(messageID, alias, emoji string) (added bool, ok bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	i := s.indexOf(messageID)
	if i < 0 {
		return false, false
	}
	m := s.doc.Messages[i]

	for ri := range m.Reactions {
		r := &m.Reactions[ri]
		if r.Emoji != emoji {
			continue
		}
		for ai, a := range r.Aliases {
			if a == alias {
				r.Aliases = append(r.Aliases[:ai], r.Aliases[ai+1:]...)
				if len(r.Aliases) == 0 {
					m.Reactions = append(m.Reactions[:ri], m.Reactions[ri+1:]...)
				}
				s.markDirty()
				return false, true
			}
		}
		r.Aliases = append(r.Aliases, alias)
		s.markDirty()
		return true, true
	}

	m.Reactions = append(m.Reactions, models.Reaction{Emoji: emoji, Aliases: []string{alias}})
	s.markDirty()
	return true, true
}

// ListHistory returns messages matching scopeKey, excluding tombstones,
// filtered to timestamp < before when before is non-zero, sorted ascending
// by timestamp, then tail-sliced to limit (already clamped to [1,200] by
// the caller).
func (s *Store) ListHistory(scopeKey string, limit int, before time.Time) []*models.Message {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	matched := make([]*models.Message, 0)
	for _, m := range s.doc.Messages {
		if m.Scope.Key() != scopeKey || m.DeletedAt != nil {
			continue
		}
		if !before.IsZero() && !m.Timestamp.Before(before) {
			continue
		}
		matched = append(matched, m)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

// SearchChannelMessages performs a case-insensitive substring search over
// Body only (DM bodies are opaque and never searched), newest match last,
// capped to limit.
func (s *Store) SearchChannelMessages(channel, term string, limit int) []*models.Message {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	scopeKey := models.Scope{Kind: models.ScopeChannel, Channel: channel}.Key()
	lowered := strings.ToLower(term)

	out := make([]*models.Message, 0, limit)
	for _, m := range s.doc.Messages {
		if m.Scope.Key() != scopeKey || m.DeletedAt != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(m.Body), lowered) {
			continue
		}
		out = append(out, m)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// GetOrCreateDmConversation returns the conversation between a and b,
// creating it if absent. ID is deterministic from the sorted alias pair,
// so either caller order resolves to the same conversation.
func (s *Store) GetOrCreateDmConversation(a, b string) (*models.DmConversation, error) {
	aliasA, aliasB := a, b
	if aliasA > aliasB {
		aliasA, aliasB = aliasB, aliasA
	}
	convoID := "dm:" + aliasA + ":" + aliasB

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if c, ok := s.doc.DmConversations[convoID]; ok {
		return c, nil
	}

	c := &models.DmConversation{
		ConvoID:   convoID,
		AliasA:    aliasA,
		AliasB:    aliasB,
		CreatedAt: time.Now(),
	}
	s.doc.DmConversations[convoID] = c
	s.markDirty()
	return c, nil
}

// DmConversation returns the conversation row by ID, for scope-keyed fan-out
// lookups that only have a convoID in hand (e.g. reacting to a DM message).
func (s *Store) DmConversation(convoID string) (*models.DmConversation, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	c, ok := s.doc.DmConversations[convoID]
	return c, ok
}

// RunRetentionCleanup tombstones every non-deleted message older than
// now - days. It returns the number of messages it tombstoned.
func (s *Store) RunRetentionCleanup(days int) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := time.Now().AddDate(0, 0, -days)
	n := 0
	for _, m := range s.doc.Messages {
		if m.DeletedAt == nil && m.Timestamp.Before(cutoff) {
			now := time.Now()
			m.DeletedAt = &now
			n++
		}
	}
	if n > 0 {
		s.markDirty()
	}
	return n
}
