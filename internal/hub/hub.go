// Package hub is the connection hub: it accepts sessions, owns per-session
// state, and fans outbound events to rooms. It holds a Client struct behind
// a clients map+mutex, with a selfContained toggle between an in-process
// pub/sub and github.com/redis/go-redis/v9 for clustered fan-out, and
// upgrades sockets via github.com/gorilla/websocket. Its room model is
// alias:<name>/channel:<name> keys. Inbound decoding and authorization live
// in internal/dispatcher; the Hub only knows how to deliver bytes to the
// right sockets.
package hub

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ircgateway/internal/metrics"
	"ircgateway/internal/originpolicy"
	"ircgateway/internal/ratelimit"
)

// sendBufferSize bounds each client's outbound write buffer; on overflow
// the Hub disconnects the offender rather than blocking or growing unbounded.
const sendBufferSize = 256

// EventHandler decodes and authorizes one inbound event for a client. It is
// supplied by internal/dispatcher via Setup; the Hub never imports
// dispatcher, avoiding an import cycle.
type EventHandler func(c *Client, event string, payload json.RawMessage)

// Client is one live connection and its Hub-owned per-session state. Conn is
// set for a WebSocket registration; lineConn and lineTranslate are set
// instead for a classical-wire registration, so both transports share one
// room/back-pressure/fan-out implementation.
type Client struct {
	SessionID string
	IP        string
	Conn      *websocket.Conn

	mutex           sync.Mutex
	DeviceID        string
	DevicePublicKey string
	Alias           string
	ReclaimNonce    string
	Status          string // online, away, offline
	Color           string
	rooms           map[string]bool
	ignored         map[string]bool
	RateWindow      *ratelimit.Window

	redisPubSub   *redis.PubSub
	ctx           context.Context
	cancel        context.CancelFunc
	send          chan []byte
	closed        bool
	lineConn      io.Closer
	lineWriter    *bufio.Writer
	lineTranslate func(event string, payload json.RawMessage) (string, bool)
}

var (
	clients      = make(map[string]*Client)
	clientsMutex sync.RWMutex

	sugar         *zap.SugaredLogger
	redisClient   *redis.Client
	selfContained = true
	onEvent       EventHandler
	local         = &LocalPubSub{}

	redisCtx = context.Background()
)

// Setup wires the Hub's dependencies. handler is called once per decoded
// inbound frame (spec's "route inbound events to the Dispatcher").
func Setup(s *zap.SugaredLogger, rdb *redis.Client, selfContainedMode bool, handler EventHandler) {
	sugar = s
	redisClient = rdb
	selfContained = selfContainedMode
	onEvent = handler
	local.Setup()
}

// Upgrade accepts a WebSocket upgrade at r, checking origin with policy, and
// registers the resulting Client under sessionID. The caller (internal/health's
// upgrade handler) then drives the read loop via ReadLoop.
func Upgrade(w http.ResponseWriter, r *http.Request, policy *originpolicy.Policy, sessionID string) (*Client, error) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return policy.Allow(r.Header.Get("Origin"))
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		SessionID: sessionID,
		IP:        originpolicy.ClientIP(r),
		Conn:      conn,
		Status:    "online",
		rooms:     make(map[string]bool),
		ignored:   make(map[string]bool),
		ctx:       ctx,
		cancel:    cancel,
		send:      make(chan []byte, sendBufferSize),
		RateWindow: ratelimit.New(ratelimit.General),
	}

	if !selfContained {
		c.redisPubSub = redisClient.Subscribe(ctx)
		go c.forwardRedis()
	}

	register(c)
	go c.writeLoop()
	JoinRoom(sessionID, PresenceRoom)

	metrics.ConnectedSessions.Inc()
	return c, nil
}

// RegisterLineClient registers a Transport B (classical-wire) session under
// sessionID, so it shares rooms and fan-out with Transport A clients even
// though it never goes through Upgrade. conn is the hijacked TCP connection;
// translate renders an outbound {event, payload} as a wire line, or declines
// for events the wire subset has no verb for. The caller owns reading lines
// off conn and calling Dispatcher primitives directly — RegisterLineClient
// only wires the outbound half.
func RegisterLineClient(conn io.ReadWriteCloser, ip, sessionID string, translate func(event string, payload json.RawMessage) (string, bool)) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		SessionID:     sessionID,
		IP:            ip,
		Status:        "online",
		rooms:         make(map[string]bool),
		ignored:       make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
		send:          make(chan []byte, sendBufferSize),
		RateWindow:    ratelimit.New(ratelimit.WireCompat),
		lineConn:      conn,
		lineWriter:    bufio.NewWriter(conn),
		lineTranslate: translate,
	}

	if !selfContained {
		c.redisPubSub = redisClient.Subscribe(ctx)
		go c.forwardRedis()
	}

	register(c)
	go c.writeLoop()
	JoinRoom(sessionID, PresenceRoom)

	metrics.ConnectedSessions.Inc()
	return c
}

// PresenceRoom is the one global room every connected session occupies for
// the lifetime of its connection, so presence events can be emitted
// globally without per-viewer subscription bookkeeping.
const PresenceRoom = "presence"

func register(c *Client) {
	clientsMutex.Lock()
	defer clientsMutex.Unlock()
	clients[c.SessionID] = c
}

// Get returns the live client for a session ID, if connected.
func Get(sessionID string) (*Client, bool) {
	clientsMutex.RLock()
	defer clientsMutex.RUnlock()
	c, ok := clients[sessionID]
	return c, ok
}

// ReadLoop blocks reading frames from c until the connection closes, calling
// onEvent for each one. It returns when the socket is gone; the caller is
// responsible for session teardown afterward.
func (c *Client) ReadLoop() {
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}

		var env inboundEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			sugar.Debugw("hub: dropping unparseable frame", "session", c.SessionID, "error", err)
			continue
		}
		onEvent(c, env.Event, env.Payload)
	}
}

type inboundEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type outboundEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func (c *Client) writeLoop() {
	if c.lineConn != nil {
		c.lineWriteLoop()
		return
	}
	for data := range c.send {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.Close()
			return
		}
	}
}

// lineWriteLoop services a Transport B (classical-wire) client: each
// outbound envelope is decoded and offered to lineTranslate, which renders
// it as a wire line or declines (events the wire subset has no verb for are
// silently dropped rather than breaking the connection).
func (c *Client) lineWriteLoop() {
	for data := range c.send {
		var env inboundEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		line, ok := c.lineTranslate(env.Event, env.Payload)
		if !ok {
			continue
		}
		if _, err := c.lineWriter.WriteString(line + "\r\n"); err != nil {
			c.Close()
			return
		}
		if err := c.lineWriter.Flush(); err != nil {
			c.Close()
			return
		}
	}
}

func (c *Client) forwardRedis() {
	for msg := range c.redisPubSub.Channel() {
		c.enqueue([]byte(msg.Payload))
	}
}

// enqueue pushes raw bytes onto the client's write buffer, disconnecting on
// overflow instead of blocking the publisher. A message_event CREATED whose
// sender this client is ignoring is dropped silently here rather than at
// send time, since ignore is a per-viewer delivery filter, not a block on
// the sender: the message still gets stored and delivered to every other
// viewer, and the sender is never told they were filtered.
func (c *Client) enqueue(data []byte) {
	if c.suppressesIgnoredSender(data) {
		return
	}
	select {
	case c.send <- data:
	default:
		sugar.Warnw("hub: write buffer overflow, disconnecting", "session", c.SessionID)
		c.Close()
	}
}

func (c *Client) suppressesIgnoredSender(data []byte) bool {
	var env struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}
	if json.Unmarshal(data, &env) != nil || env.Event != EventMessageEvent {
		return false
	}
	var body struct {
		Type    string `json:"type"`
		Message struct {
			SenderAlias string `json:"senderAlias"`
		} `json:"message"`
	}
	if json.Unmarshal(env.Payload, &body) != nil {
		return false
	}
	if body.Type != MessageCreated || body.Message.SenderAlias == "" {
		return false
	}
	return c.IsIgnoring(body.Message.SenderAlias)
}

// Send marshals {event, payload} and queues it for delivery to c only.
func (c *Client) Send(event string, payload any) error {
	data, err := json.Marshal(outboundEnvelope{Event: event, Payload: payload})
	if err != nil {
		return err
	}
	c.enqueue(data)
	return nil
}

// SendError emits a server_error envelope to c. Handlers call this instead
// of aborting the session on any domain-level failure.
func (c *Client) SendError(code, message string) {
	metrics.ServerErrorsTotal.WithLabelValues(code).Inc()
	_ = c.Send(EventServerError, map[string]string{"code": code, "message": message})
}

// Close cancels the client's context, unsubscribes it from every room, and
// closes the socket. Safe to call more than once.
func (c *Client) Close() {
	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return
	}
	c.closed = true
	c.mutex.Unlock()

	LeaveAllRooms(c.SessionID)

	c.cancel()
	if c.redisPubSub != nil {
		_ = c.redisPubSub.Close()
	}
	close(c.send)
	if c.lineConn != nil {
		_ = c.lineConn.Close()
	} else {
		_ = c.Conn.Close()
	}

	clientsMutex.Lock()
	delete(clients, c.SessionID)
	clientsMutex.Unlock()

	metrics.ConnectedSessions.Dec()
}

// --- per-session state accessors, mutex-guarded. Each session's own events
// are processed sequentially, but other goroutines — another session's
// handlers, such as color assignment or a forced /kick — may read/write
// concurrently.

func (c *Client) SetIdentity(deviceID, publicKey string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.DeviceID = deviceID
	c.DevicePublicKey = publicKey
}

func (c *Client) SetAlias(alias, nonce string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.Alias = alias
	c.ReclaimNonce = nonce
}

func (c *Client) GetAlias() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.Alias
}

func (c *Client) SetStatus(status string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.Status = status
}

func (c *Client) GetStatus() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.Status
}

func (c *Client) SetColor(color string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.Color = color
}

func (c *Client) GetColor() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.Color
}

func (c *Client) Ignore(alias string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.ignored[alias] = true
}

func (c *Client) Unignore(alias string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.ignored, alias)
}

func (c *Client) IsIgnoring(alias string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.ignored[alias]
}

// Rooms returns a snapshot of the rooms the client currently occupies.
func (c *Client) Rooms() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	out := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		out = append(out, r)
	}
	return out
}
