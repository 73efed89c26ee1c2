package store

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"ircgateway/internal/metrics"
	"ircgateway/internal/models"
)

// ErrAliasUnauthorized is returned by ClaimAlias when the record is held by
// a different device and the caller didn't supply the matching reclaim
// nonce. The dispatcher translates this to the UNAUTHORIZED server_error code.
var ErrAliasUnauthorized = errors.New("alias held by another device without matching reclaim nonce")

// ErrAliasInUse is returned when the alias is currently held by a different
// live session. The dispatcher translates this to ALIAS_IN_USE.
var ErrAliasInUse = errors.New("alias currently held by a live session")

func newNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// ClaimAlias implements the atomic claim: if the existing record's
// ActiveSessionID is set and belongs to a different session, the claim fails
// with ErrAliasInUse. Otherwise a caller on a different device than the
// record's must supply the correct reclaimNonce, or the claim fails with
// ErrAliasUnauthorized. On success the nonce rotates and the alias is bound
// to sessionID.
func (s *Store) ClaimAlias(alias, deviceID, sessionID, ip, suppliedNonce string) (*models.Alias, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, exists := s.doc.Aliases[alias]
	now := time.Now()

	if exists {
		if existing.ActiveSessionID != "" && existing.ActiveSessionID != sessionID {
			return nil, ErrAliasInUse
		}
		if existing.CurrentDeviceID != deviceID && existing.ReclaimNonce != suppliedNonce {
			return nil, ErrAliasUnauthorized
		}

		nonce, err := newNonce()
		if err != nil {
			return nil, err
		}
		existing.CurrentDeviceID = deviceID
		existing.ActiveSessionID = sessionID
		existing.LastIP = ip
		existing.ClaimedAt = now
		existing.ReclaimNonce = nonce
		s.markDirty()
		s.reportClaimedAliases()
		return existing, nil
	}

	nonce, err := newNonce()
	if err != nil {
		return nil, err
	}
	a := &models.Alias{
		Alias:           alias,
		CurrentDeviceID: deviceID,
		ActiveSessionID: sessionID,
		LastIP:          ip,
		ClaimedAt:       now,
		ReclaimNonce:    nonce,
	}
	s.doc.Aliases[alias] = a
	s.markDirty()
	s.reportClaimedAliases()
	return a, nil
}

// ReleaseAlias sets ActiveSessionID to empty; the row is never purged.
func (s *Store) ReleaseAlias(alias string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	a, ok := s.doc.Aliases[alias]
	if !ok {
		return
	}
	a.ActiveSessionID = ""
	s.markDirty()
	s.reportClaimedAliases()
}

// reportClaimedAliases refreshes the ClaimedAliases gauge. Caller must hold s.mutex.
func (s *Store) reportClaimedAliases() {
	count := 0
	for _, a := range s.doc.Aliases {
		if a.ActiveSessionID != "" {
			count++
		}
	}
	metrics.ClaimedAliases.Set(float64(count))
}

// Alias returns the alias row.
func (s *Store) Alias(alias string) (*models.Alias, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	a, ok := s.doc.Aliases[alias]
	return a, ok
}

// LiveAliases returns the aliases that currently have a non-empty
// ActiveSessionID, used by /who, color assignment, and network snapshots.
func (s *Store) LiveAliases() []*models.Alias {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]*models.Alias, 0)
	for _, a := range s.doc.Aliases {
		if a.ActiveSessionID != "" {
			out = append(out, a)
		}
	}
	return out
}
