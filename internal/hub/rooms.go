package hub

import (
	"encoding/json"
	"fmt"
)

// AliasRoom and ChannelRoom render the two room-key families: one per live
// alias, one per channel.
func AliasRoom(alias string) string   { return fmt.Sprintf("alias:%s", alias) }
func ChannelRoom(channel string) string { return fmt.Sprintf("channel:%s", channel) }

// JoinRoom subscribes sessionID to room, local pub/sub or redis depending on
// the selfContained toggle.
func JoinRoom(sessionID, room string) {
	c, ok := Get(sessionID)
	if !ok {
		return
	}

	c.mutex.Lock()
	c.rooms[room] = true
	c.mutex.Unlock()

	if selfContained {
		local.Subscribe(room, sessionID)
		return
	}
	if err := c.redisPubSub.Subscribe(c.ctx, room); err != nil {
		sugar.Errorw("hub: redis subscribe failed", "room", room, "error", err)
	}
}

// LeaveRoom unsubscribes sessionID from room.
func LeaveRoom(sessionID, room string) {
	c, ok := Get(sessionID)
	if !ok {
		return
	}

	c.mutex.Lock()
	delete(c.rooms, room)
	c.mutex.Unlock()

	if selfContained {
		local.Unsubscribe(room, sessionID)
		return
	}
	if err := c.redisPubSub.Unsubscribe(c.ctx, room); err != nil {
		sugar.Errorw("hub: redis unsubscribe failed", "room", room, "error", err)
	}
}

// LeaveAllRooms removes sessionID from every room it occupies, called on
// disconnect.
func LeaveAllRooms(sessionID string) {
	if selfContained {
		local.UnsubscribeFromAll(sessionID)
		return
	}
	c, ok := Get(sessionID)
	if !ok {
		return
	}
	for _, room := range c.Rooms() {
		if err := c.redisPubSub.Unsubscribe(c.ctx, room); err != nil {
			sugar.Errorw("hub: redis unsubscribe-all failed", "room", room, "error", err)
		}
	}
}

// Broadcast publishes {event, payload} to every session subscribed to room.
// Fan-out order within a room matches Store insertion order as long as
// callers invoke Broadcast in that order, which the single-writer
// dispatcher guarantees.
func Broadcast(room, event string, payload any) error {
	data, err := json.Marshal(outboundEnvelope{Event: event, Payload: payload})
	if err != nil {
		return err
	}

	if selfContained {
		local.Publish(room, data)
		return nil
	}
	return redisClient.Publish(redisCtx, room, data).Err()
}
