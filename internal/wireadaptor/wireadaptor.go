// Package wireadaptor implements a second transport: a line-framed,
// CR/LF-terminated subset of the classical IRC wire protocol mounted at
// /webirc. It re-enters the same domain through internal/dispatcher's
// primitives and internal/store's reads, and registers with internal/hub as
// a genuine Client so it shares rooms and fan-out with the WebSocket
// transport.
//
// One handler goroutine drives each hijacked connection, mirroring the
// one-goroutine-per-socket shape used for the WebSocket transport; line
// parsing follows the same tokenizer spirit as cmdparser.
package wireadaptor

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ircgateway/internal/dispatcher"
	"ircgateway/internal/hub"
	"ircgateway/internal/models"
	"ircgateway/internal/originpolicy"
	"ircgateway/internal/snowflake"
	"ircgateway/internal/store"
	"ircgateway/internal/validator"
)

var (
	sugar *zap.SugaredLogger
	st    *store.Store
)

// Setup wires the adaptor's dependencies.
func Setup(s *zap.SugaredLogger, storeHandle *store.Store) {
	sugar = s
	st = storeHandle
}

// Handle hijacks the HTTP connection at /webirc and drives a line-based
// session until the client disconnects.
func Handle(w http.ResponseWriter, r *http.Request) {
	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "hijacking not supported", http.StatusInternalServerError)
		return
	}
	ip := originpolicy.ClientIP(r)

	conn, rw, err := hijacker.Hijack()
	if err != nil {
		sugar.Errorw("wireadaptor: hijack failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID, err := snowflake.GenerateID()
	if err != nil {
		sugar.Errorw("wireadaptor: minting session id failed", "error", err)
		return
	}
	deviceID := uuid.NewString()
	if _, err := st.UpsertDevice(deviceID, ""); err != nil {
		sugar.Errorw("wireadaptor: device registration failed", "error", err)
		return
	}

	sess := &session{conn: conn, deviceID: deviceID}
	c := hub.RegisterLineClient(conn, ip, sessionID, sess.translate)
	c.SetIdentity(deviceID, "")
	sess.client = c
	defer dispatcher.HandleDisconnect(c)

	reader := bufio.NewReader(rw)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			sess.handleLine(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			return
		}
	}
}

// session holds the classical-wire-specific per-connection state that isn't
// already tracked by the Client (mainly because "alias" only becomes live
// once NICK succeeds, before which no claim_alias equivalent has run).
type session struct {
	conn     interface{ Write([]byte) (int, error) }
	client   *hub.Client
	deviceID string
}

func (s *session) handleLine(line string) {
	if line == "" {
		return
	}
	if !s.client.RateWindow.Allow(timeNow()) {
		return
	}

	verb, params := parseLine(line)
	switch strings.ToUpper(verb) {
	case "PING":
		token := ""
		if len(params) > 0 {
			token = params[0]
		}
		s.writeLine("PONG " + token)
	case "NICK":
		s.handleNick(params)
	case "JOIN":
		s.handleJoin(params)
	case "LIST":
		s.handleList()
	case "PRIVMSG":
		s.handlePrivmsg(params)
	}
}

func (s *session) handleNick(params []string) {
	if len(params) < 1 {
		s.numeric("461", "NICK", "Not enough parameters")
		return
	}
	alias, err := validator.Alias(params[0])
	if err != nil {
		s.numeric("432", params[0], "Erroneous nickname")
		return
	}
	if a, ok := st.Alias(alias); ok && a.ActiveSessionID != "" && a.ActiveSessionID != s.client.SessionID {
		s.numeric("433", alias, "Nickname is already in use")
		return
	}

	record, err := st.ClaimAlias(alias, s.deviceID, s.client.SessionID, s.client.IP, "")
	if err != nil {
		s.numeric("433", alias, "Nickname is already in use")
		return
	}
	s.client.SetAlias(record.Alias, record.ReclaimNonce)
	hub.JoinRoom(s.client.SessionID, hub.AliasRoom(record.Alias))
	s.numeric("001", record.Alias, "Welcome to the gateway, "+record.Alias)
}

func (s *session) handleJoin(params []string) {
	alias := s.client.GetAlias()
	if alias == "" {
		s.writeLine(":server NOTICE * :you must NICK before JOIN")
		return
	}
	if len(params) < 1 {
		s.numeric("461", "JOIN", "Not enough parameters")
		return
	}
	channel := params[0]
	if err := dispatcher.JoinChannel(s.client, alias, channel); err != nil {
		s.numeric("461", channel, err.Error())
		return
	}
	normalized, _ := validator.Channel(channel)
	names := make([]string, 0)
	for _, m := range st.ChannelMembers(normalized) {
		if !m.IsBanned {
			names = append(names, m.Alias)
		}
	}
	s.numeric("353", normalized, strings.Join(names, " "))
	s.numeric("366", normalized, "End of /NAMES list")
}

func (s *session) handleList() {
	for _, ch := range st.ListChannels() {
		if hasMode(ch.Modes, models.ModeSecret) {
			continue
		}
		s.numeric("322", ch.Name, fmt.Sprintf("%d :%s", st.MemberCount(ch.Name), ch.Topic))
	}
	s.numeric("323", "End of /LIST")
}

func (s *session) handlePrivmsg(params []string) {
	alias := s.client.GetAlias()
	if alias == "" {
		s.writeLine(":server NOTICE * :you must NICK before PRIVMSG")
		return
	}
	if len(params) < 2 {
		s.numeric("412", "No text to send")
		return
	}
	target := params[0]
	text := params[1]
	if text == "" {
		s.numeric("412", "No text to send")
		return
	}

	if strings.HasPrefix(target, "#") {
		if err := dispatcher.SendChannelText(s.client, alias, target, text, models.KindText, "", ""); err != nil {
			s.numeric("401", target, err.Error())
		}
		return
	}

	// Targeted PRIVMSG to a nick echoes back to the sender only in this
	// version; it is not delivered to the named live alias.
	s.writeLine(fmt.Sprintf(":%s PRIVMSG %s :%s", alias, target, text))
}

func (s *session) numeric(code string, rest ...string) {
	s.writeLine(":server " + code + " " + strings.Join(rest, " "))
}

func (s *session) writeLine(line string) {
	_, _ = s.conn.Write([]byte(line + "\r\n"))
}

// translate renders an outbound message_event CREATED for a channel scope as
// a classical PRIVMSG line; every other event this gateway emits has no
// representation in the wire subset and is dropped.
func (s *session) translate(event string, payload json.RawMessage) (string, bool) {
	if event != hub.EventMessageEvent {
		return "", false
	}
	var env struct {
		Type    string `json:"type"`
		Message struct {
			SenderAlias string `json:"senderAlias"`
			Body        string `json:"body"`
			Scope       struct {
				Kind    string `json:"kind"`
				Channel string `json:"channel"`
			} `json:"scope"`
		} `json:"message"`
	}
	if err := json.Unmarshal(payload, &env); err != nil || env.Type != hub.MessageCreated {
		return "", false
	}
	if env.Message.Scope.Kind != string(models.ScopeChannel) {
		return "", false
	}
	return fmt.Sprintf(":%s PRIVMSG %s :%s", env.Message.SenderAlias, env.Message.Scope.Channel, env.Message.Body), true
}

// parseLine splits a wire line into its verb and parameters. A parameter
// beginning with ':' absorbs the remainder of the line (including spaces) as
// a single trailing parameter, per the classical wire format.
func parseLine(line string) (string, []string) {
	fields := strings.SplitN(line, " :", 2)
	head := strings.Fields(fields[0])
	if len(head) == 0 {
		return "", nil
	}
	verb := head[0]
	params := head[1:]
	if len(fields) == 2 {
		params = append(params, fields[1])
	}
	return verb, params
}

func hasMode(modes []string, mode string) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

func timeNow() time.Time { return time.Now() }
