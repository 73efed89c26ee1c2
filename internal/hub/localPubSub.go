package hub

import (
	"sync"
)

// LocalPubSub is the self-contained (single-process) fan-out backing: a
// mutex-guarded map of room name to subscribed session IDs, publishing
// through Client.enqueue so back-pressure handling stays in one place.
type LocalPubSub struct {
	mutex   sync.RWMutex
	hashMap map[string][]string
}

func (ps *LocalPubSub) Setup() {
	ps.hashMap = make(map[string][]string)
}

func (ps *LocalPubSub) Unsubscribe(channel string, sessionID string) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	sessionIDs := ps.hashMap[channel]

	// this won't run in case channel doesn't exist since length will be 0
	for i := range sessionIDs {
		if sessionIDs[i] == sessionID {
			sessionIDs[i] = sessionIDs[len(sessionIDs)-1]
			ps.hashMap[channel] = sessionIDs[:len(sessionIDs)-1]
			break
		}
	}

	// delete channel from map if no one is subscribed to it
	if len(ps.hashMap[channel]) == 0 {
		delete(ps.hashMap, channel)
	}
}

func (ps *LocalPubSub) UnsubscribeFromAll(sessionID string) {
	for key := range ps.hashMap {
		ps.Unsubscribe(key, sessionID)
	}
}

func (ps *LocalPubSub) Subscribe(key string, sessionID string) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	ps.hashMap[key] = append(ps.hashMap[key], sessionID)
}

func (ps *LocalPubSub) Publish(channel string, message []byte) {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	sessionIDs := ps.hashMap[channel]
	for i := range sessionIDs {
		client, exists := Get(sessionIDs[i])
		if exists {
			client.enqueue(message)
		} else {
			sugar.Warnf("Session ID %s is supposed to be available", sessionIDs[i])
		}
	}
}
