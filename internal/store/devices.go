package store

import (
	"time"

	"ircgateway/internal/models"
)

// UpsertDevice looks up deviceID (when non-empty) or mints a fresh one, and
// stamps LastSeenAt. publicKey is opaque and never validated.
func (s *Store) UpsertDevice(deviceID, publicKey string) (*models.Device, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()

	if deviceID != "" {
		if d, ok := s.doc.Devices[deviceID]; ok {
			d.LastSeenAt = now
			if publicKey != "" {
				d.PublicKey = publicKey
			}
			s.markDirty()
			return d, nil
		}
	}

	id := deviceID
	if id == "" {
		generated, err := newID()
		if err != nil {
			return nil, err
		}
		id = generated
	}

	d := &models.Device{
		DeviceID:   id,
		PublicKey:  publicKey,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	s.doc.Devices[id] = d
	s.markDirty()
	return d, nil
}

// CreateSession inserts a new session row for deviceID, connecting from ip.
func (s *Store) CreateSession(deviceID, ip, resumeToken string) (*models.Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id, err := newID()
	if err != nil {
		return nil, err
	}

	sess := &models.Session{
		SessionID:   id,
		DeviceID:    deviceID,
		IP:          ip,
		ConnectedAt: time.Now(),
		ResumeToken: resumeToken,
	}
	s.doc.Sessions[id] = sess
	s.markDirty()
	return sess, nil
}

// CloseSession stamps DisconnectedAt; the row is retained, never deleted.
func (s *Store) CloseSession(sessionID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sess, ok := s.doc.Sessions[sessionID]
	if !ok {
		return
	}
	now := time.Now()
	sess.DisconnectedAt = &now
	s.markDirty()
}

// AliasForDevice returns the alias currently mapped to deviceID, if any.
func (s *Store) AliasForDevice(deviceID string) (string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, a := range s.doc.Aliases {
		if a.CurrentDeviceID == deviceID {
			return a.Alias, true
		}
	}
	return "", false
}
