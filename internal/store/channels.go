package store

import (
	"time"

	"ircgateway/internal/metrics"
	"ircgateway/internal/models"
)

// EnsureChannel idempotently creates the channel, assigning ownerAlias as
// OWNER when it doesn't already exist. created reports whether this call
// created it.
func (s *Store) EnsureChannel(name, ownerAlias string) (*models.Channel, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if c, ok := s.doc.Channels[name]; ok {
		return c, false, nil
	}

	id, err := newID()
	if err != nil {
		return nil, false, err
	}

	c := &models.Channel{
		ChannelID:  id,
		Name:       name,
		OwnerAlias: ownerAlias,
		CreatedAt:  time.Now(),
	}
	s.doc.Channels[name] = c
	s.doc.ChannelMembers[name] = make(map[string]*models.Membership)
	s.markDirty()
	metrics.OpenChannels.Set(float64(len(s.doc.Channels)))
	return c, true, nil
}

// Channel returns the channel row by name.
func (s *Store) Channel(name string) (*models.Channel, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	c, ok := s.doc.Channels[name]
	return c, ok
}

// SetTopic updates the channel topic.
func (s *Store) SetTopic(channel, topic string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if c, ok := s.doc.Channels[channel]; ok {
		c.Topic = topic
		s.markDirty()
	}
}

// SetMode adds or removes a single mode flag and returns the full set.
func (s *Store) SetMode(channel, mode string, set bool) ([]string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	c, ok := s.doc.Channels[channel]
	if !ok {
		return nil, false
	}

	has := false
	idx := -1
	for i, m := range c.Modes {
		if m == mode {
			has = true
			idx = i
			break
		}
	}

	switch {
	case set && !has:
		c.Modes = append(c.Modes, mode)
	case !set && has:
		c.Modes = append(c.Modes[:idx], c.Modes[idx+1:]...)
	}
	s.markDirty()

	out := make([]string, len(c.Modes))
	copy(out, c.Modes)
	return out, true
}

// ListChannels returns every channel row, for /list.
func (s *Store) ListChannels() []*models.Channel {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]*models.Channel, 0, len(s.doc.Channels))
	for _, c := range s.doc.Channels {
		out = append(out, c)
	}
	return out
}

// MemberCount returns the non-banned membership count for a channel.
func (s *Store) MemberCount(channel string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	n := 0
	for _, m := range s.doc.ChannelMembers[channel] {
		if !m.IsBanned {
			n++
		}
	}
	return n
}

// UpsertMembership inserts the membership row if absent, with the caller's
// defaultRole (the dispatcher passes OWNER for the channel's owner and MEMBER
// for everyone else). If the alias already has a row (for example one seeded
// by an invite, or a banned one), JoinedAt is refreshed and the role keeps
// whatever it was.
func (s *Store) UpsertMembership(channel, alias string, defaultRole models.Role) (*models.Membership, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	members, ok := s.doc.ChannelMembers[channel]
	if !ok {
		members = make(map[string]*models.Membership)
		s.doc.ChannelMembers[channel] = members
	}

	if m, exists := members[alias]; exists {
		m.JoinedAt = time.Now()
		s.markDirty()
		return m, nil
	}

	m := &models.Membership{
		Channel:  channel,
		Alias:    alias,
		Role:     defaultRole,
		JoinedAt: time.Now(),
	}
	members[alias] = m
	s.markDirty()
	return m, nil
}

// PartMembership removes the membership row entirely: a later re-join
// starts fresh at MEMBER unless the alias owns the channel.
func (s *Store) PartMembership(channel, alias string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if members, ok := s.doc.ChannelMembers[channel]; ok {
		delete(members, alias)
		s.markDirty()
	}
}

// Membership returns the membership row for (channel, alias).
func (s *Store) Membership(channel, alias string) (*models.Membership, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	members, ok := s.doc.ChannelMembers[channel]
	if !ok {
		return nil, false
	}
	m, ok := members[alias]
	return m, ok
}

// ChannelMembers returns every membership row for a channel, banned included
// (callers filter per invariant 3 as needed).
func (s *Store) ChannelMembers(channel string) []*models.Membership {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	members := s.doc.ChannelMembers[channel]
	out := make([]*models.Membership, 0, len(members))
	for _, m := range members {
		out = append(out, m)
	}
	return out
}

// AliasChannels returns the names of every channel alias currently belongs
// to (not banned), for /whois and network_snapshot.
func (s *Store) AliasChannels(alias string) []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]string, 0)
	for name, members := range s.doc.ChannelMembers {
		if m, ok := members[alias]; ok && !m.IsBanned {
			out = append(out, name)
		}
	}
	return out
}

// SetMemberRole sets the role of (channel, alias).
func (s *Store) SetMemberRole(channel, alias string, role models.Role) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	members, ok := s.doc.ChannelMembers[channel]
	if !ok {
		return false
	}
	m, ok := members[alias]
	if !ok {
		return false
	}
	m.Role = role
	s.markDirty()
	return true
}

// SetMemberMute sets (or clears, with a zero until) the mute expiry.
func (s *Store) SetMemberMute(channel, alias string, until time.Time) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	members, ok := s.doc.ChannelMembers[channel]
	if !ok {
		return false
	}
	m, ok := members[alias]
	if !ok {
		return false
	}
	if until.IsZero() {
		m.MutedUntil = nil
	} else {
		t := until
		m.MutedUntil = &t
	}
	s.markDirty()
	return true
}

// SetMemberBan sets or clears the ban flag.
func (s *Store) SetMemberBan(channel, alias string, banned bool) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	members, ok := s.doc.ChannelMembers[channel]
	if !ok {
		return false
	}
	m, ok := members[alias]
	if !ok {
		return false
	}
	m.IsBanned = banned
	s.markDirty()
	return true
}
