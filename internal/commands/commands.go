// Package commands interprets the slash-prefixed command surface on top of
// internal/dispatcher's mutating primitives and internal/store's
// read paths. It is invoked by internal/dispatcher via a CommandExecutor
// callback injected at startup — commands imports dispatcher, so dispatcher
// cannot import commands back without a cycle.
package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"ircgateway/internal/cmdparser"
	"ircgateway/internal/dispatcher"
	"ircgateway/internal/hub"
	"ircgateway/internal/models"
	"ircgateway/internal/rolemodel"
	"ircgateway/internal/store"
	"ircgateway/internal/validator"
)

var (
	sugar *zap.SugaredLogger
	st    *store.Store
)

// Setup wires the interpreter's dependencies.
func Setup(s *zap.SugaredLogger, storeHandle *store.Store) {
	sugar = s
	st = storeHandle
}

// Execute parses raw as a slash command and runs it, replying to c with a
// NOTICE-kind system message. contextChannel is the channel the client was
// last viewing, used by commands (like /topic with no args) that operate on
// "the current channel" rather than naming one explicitly. Input that isn't
// slash-prefixed is treated as plain channel TEXT to contextChannel, subject
// to the same send checks as send_channel_message.
func Execute(c *hub.Client, raw, contextChannel string) {
	cmd := cmdparser.Parse(raw)
	if cmd == nil {
		alias := c.GetAlias()
		if contextChannel == "" {
			notice(c, "no active channel to send to")
			return
		}
		if err := dispatcher.SendChannelText(c, alias, contextChannel, raw, models.KindText, "", ""); err != nil {
			notice(c, "send failed: "+err.Error())
		}
		return
	}
	if cmd.Name == "" {
		notice(c, "empty command")
		return
	}

	alias := c.GetAlias()
	handler, ok := table[cmd.Name]
	if !ok {
		notice(c, "unknown command: /"+cmd.Name)
		return
	}
	handler(c, alias, contextChannel, cmd)
}

type handlerFunc func(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command)

var table map[string]handlerFunc

func init() {
	table = map[string]handlerFunc{
		"help":    cmdHelp,
		"nick":    cmdNick,
		"whoami":  cmdWhoami,
		"away":    cmdAway,
		"back":    cmdBack,
		"quit":    cmdQuit,
		"join":    cmdJoin,
		"part":    cmdPart,
		"list":    cmdList,
		"names":   cmdNames,
		"who":     cmdWho,
		"whois":   cmdWhois,
		"topic":   cmdTopic,
		"mode":    cmdMode,
		"op":      cmdRoleChange,
		"deop":    cmdRoleChange,
		"voice":   cmdRoleChange,
		"devoice": cmdRoleChange,
		"ban":     cmdBan,
		"unban":   cmdUnban,
		"mute":    cmdMute,
		"unmute":  cmdUnmute,
		"kick":    cmdKick,
		"invite":  cmdInvite,
		"msg":     cmdMsg,
		"me":      cmdMe,
		"notice":  cmdNoticeCmd,
		"reply":   cmdReply,
		"thread":  cmdReply,
		"ignore":  cmdIgnore,
		"unignore": cmdUnignore,
		"search":  cmdSearch,
		"pin":     cmdNoop,
		"unpin":   cmdNoop,
		"clear":   cmdNoop,
		"bot":     cmdBot,
	}
}

func notice(c *hub.Client, text string) {
	_ = c.Send(hub.EventMessageEvent, map[string]any{
		"type": hub.MessageCreated,
		"message": map[string]any{
			"senderAlias": "server",
			"kind":        models.KindNotice,
			"body":        text,
			"timestamp":   time.Now(),
		},
	})
}

func requireAlias(c *hub.Client, alias string) bool {
	if alias == "" {
		notice(c, "claim an alias before using commands")
		return false
	}
	return true
}

func resolveChannel(args []string, contextChannel string) (string, bool) {
	if len(args) == 0 {
		return contextChannel, contextChannel != ""
	}
	return args[0], true
}

func cmdHelp(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	names := make([]string, 0, len(table))
	for n := range table {
		names = append(names, n)
	}
	notice(c, "available commands: /"+strings.Join(names, ", /"))
}

func cmdNick(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	notice(c, "renaming an alias mid-session isn't supported; claim_alias a new one instead")
}

func cmdWhoami(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) {
		return
	}
	channels := st.AliasChannels(alias)
	notice(c, fmt.Sprintf("you are %s, color %s, in: %s", alias, c.GetColor(), strings.Join(channels, ", ")))
}

func cmdAway(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) {
		return
	}
	c.SetStatus("away")
	_ = hub.Broadcast(hub.PresenceRoom, hub.EventPresenceEvent, map[string]any{"alias": alias, "status": "AWAY"})
	notice(c, "marked away: "+cmd.RawArgs)
}

func cmdBack(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) {
		return
	}
	c.SetStatus("online")
	_ = hub.Broadcast(hub.PresenceRoom, hub.EventPresenceEvent, map[string]any{"alias": alias, "status": "ONLINE"})
	notice(c, "welcome back")
}

func cmdQuit(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	notice(c, "closing connection")
	c.Close()
}

func cmdJoin(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || len(cmd.Args) == 0 {
		notice(c, "usage: /join #channel")
		return
	}
	if err := dispatcher.JoinChannel(c, alias, cmd.Args[0]); err != nil {
		notice(c, "join failed: "+err.Error())
	}
}

func cmdPart(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	channel, ok := resolveChannel(cmd.Args, contextChannel)
	if !requireAlias(c, alias) || !ok {
		notice(c, "usage: /part #channel")
		return
	}
	reason := ""
	if len(cmd.Args) > 1 {
		reason = strings.Join(cmd.Args[1:], " ")
	}
	dispatcher.PartChannel(c, alias, channel, reason)
}

func cmdList(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	channels := st.ListChannels()
	lines := make([]string, 0, len(channels))
	for _, ch := range channels {
		if hasMode(ch.Modes, models.ModeSecret) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%d) %s", ch.Name, st.MemberCount(ch.Name), ch.Topic))
	}
	notice(c, strings.Join(lines, " | "))
}

func cmdNames(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	channel, ok := resolveChannel(cmd.Args, contextChannel)
	if !ok {
		notice(c, "usage: /names #channel")
		return
	}
	members := st.ChannelMembers(channel)
	names := make([]string, 0, len(members))
	for _, m := range members {
		if !m.IsBanned {
			names = append(names, m.Role.String()+":"+m.Alias)
		}
	}
	notice(c, strings.Join(names, ", "))
}

func cmdWho(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	live := st.LiveAliases()
	names := make([]string, 0, len(live))
	for _, a := range live {
		names = append(names, a.Alias)
	}
	notice(c, strings.Join(names, ", "))
}

func cmdWhois(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if len(cmd.Args) == 0 {
		notice(c, "usage: /whois <alias>")
		return
	}
	target := cmd.Args[0]
	a, ok := st.Alias(target)
	if !ok {
		notice(c, "no such alias: "+target)
		return
	}
	status := "OFFLINE"
	if a.ActiveSessionID != "" {
		status = "ONLINE"
	}
	channels := st.AliasChannels(target)
	notice(c, fmt.Sprintf("%s is %s, in: %s", target, status, strings.Join(channels, ", ")))
}

func cmdTopic(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || contextChannel == "" && len(cmd.Args) == 0 {
		notice(c, "usage: /topic #channel [new topic]")
		return
	}
	channel := contextChannel
	rest := cmd.RawArgs
	if len(cmd.Args) > 0 {
		if strings.HasPrefix(cmd.Args[0], "#") {
			channel = cmd.Args[0]
			rest = strings.TrimSpace(strings.TrimPrefix(cmd.RawArgs, cmd.Args[0]))
		}
	}
	if rest == "" {
		ch, ok := st.Channel(channel)
		if !ok {
			notice(c, "no such channel: "+channel)
			return
		}
		notice(c, "topic for "+channel+": "+ch.Topic)
		return
	}
	if err := dispatcher.SetTopic(c, alias, channel, validator.GenericText(rest)); err != nil {
		notice(c, "topic change failed: "+err.Error())
	}
}

func cmdMode(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || len(cmd.Args) < 2 {
		notice(c, "usage: /mode #channel +i|-i|+m|-m|+n|-n|+t|-t|+k|-k|+l|-l")
		return
	}
	channel := cmd.Args[0]
	flag := cmd.Args[1]
	if len(flag) != 2 || (flag[0] != '+' && flag[0] != '-') {
		notice(c, "malformed mode flag: "+flag)
		return
	}
	set := flag[0] == '+'
	mode := "+" + flag[1:]
	if err := dispatcher.SetChannelMode(c, alias, channel, mode, set); err != nil {
		notice(c, "mode change failed: "+err.Error())
	}
}

func cmdRoleChange(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || len(cmd.Args) < 2 {
		notice(c, "usage: /"+cmd.Name+" #channel <alias>")
		return
	}
	role, ok := rolemodel.FromMode(cmd.Name)
	if !ok {
		notice(c, "not a role command: "+cmd.Name)
		return
	}
	if err := dispatcher.SetRole(alias, cmd.Args[0], cmd.Args[1], role); err != nil {
		notice(c, cmd.Name+" failed: "+err.Error())
	}
}

func cmdBan(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || len(cmd.Args) < 2 {
		notice(c, "usage: /ban #channel <alias> [reason]")
		return
	}
	reason := ""
	if len(cmd.Args) > 2 {
		reason = strings.Join(cmd.Args[2:], " ")
	}
	if err := dispatcher.Ban(alias, cmd.Args[0], cmd.Args[1], reason); err != nil {
		notice(c, "ban failed: "+err.Error())
	}
}

func cmdUnban(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || len(cmd.Args) < 2 {
		notice(c, "usage: /unban #channel <alias>")
		return
	}
	if err := dispatcher.Unban(alias, cmd.Args[0], cmd.Args[1]); err != nil {
		notice(c, "unban failed: "+err.Error())
	}
}

func cmdMute(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || len(cmd.Args) < 2 {
		notice(c, "usage: /mute #channel <alias> [minutes]")
		return
	}
	minutes := 10
	if len(cmd.Args) > 2 {
		if n, err := strconv.Atoi(cmd.Args[2]); err == nil {
			minutes = n
		}
	}
	if err := dispatcher.Mute(alias, cmd.Args[0], cmd.Args[1], time.Duration(minutes)*time.Minute); err != nil {
		notice(c, "mute failed: "+err.Error())
	}
}

func cmdUnmute(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || len(cmd.Args) < 2 {
		notice(c, "usage: /unmute #channel <alias>")
		return
	}
	if err := dispatcher.Unmute(alias, cmd.Args[0], cmd.Args[1]); err != nil {
		notice(c, "unmute failed: "+err.Error())
	}
}

func cmdKick(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || len(cmd.Args) < 2 {
		notice(c, "usage: /kick #channel <alias> [reason]")
		return
	}
	reason := ""
	if len(cmd.Args) > 2 {
		reason = strings.Join(cmd.Args[2:], " ")
	}
	if err := dispatcher.Kick(alias, cmd.Args[0], cmd.Args[1], reason); err != nil {
		notice(c, "kick failed: "+err.Error())
	}
}

func cmdInvite(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || len(cmd.Args) < 2 {
		notice(c, "usage: /invite <alias> #channel")
		return
	}
	if err := dispatcher.Invite(alias, cmd.Args[1], cmd.Args[0]); err != nil {
		notice(c, "invite failed: "+err.Error())
	}
}

func cmdMsg(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if len(cmd.Args) == 0 {
		notice(c, "usage: /msg <alias> <text>")
		return
	}
	notice(c, "direct messages are end-to-end encrypted; send a send_dm_message event to "+cmd.Args[0]+" instead")
}

func cmdMe(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || contextChannel == "" {
		notice(c, "no active channel for /me")
		return
	}
	if err := dispatcher.SendChannelText(c, alias, contextChannel, cmd.RawArgs, models.KindAction, "", ""); err != nil {
		notice(c, "/me failed: "+err.Error())
	}
}

func cmdNoticeCmd(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || contextChannel == "" {
		notice(c, "no active channel for /notice")
		return
	}
	if err := dispatcher.SendChannelText(c, alias, contextChannel, cmd.RawArgs, models.KindNotice, "", ""); err != nil {
		notice(c, "/notice failed: "+err.Error())
	}
}

func cmdReply(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if !requireAlias(c, alias) || contextChannel == "" || len(cmd.Args) == 0 {
		notice(c, "usage: /reply <messageId> <text>")
		return
	}
	body := strings.TrimSpace(strings.TrimPrefix(cmd.RawArgs, cmd.Args[0]))
	if err := dispatcher.SendChannelText(c, alias, contextChannel, body, models.KindText, cmd.Args[0], ""); err != nil {
		notice(c, "/reply failed: "+err.Error())
	}
}

func cmdIgnore(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if len(cmd.Args) == 0 {
		notice(c, "usage: /ignore <alias>")
		return
	}
	c.Ignore(cmd.Args[0])
	notice(c, "ignoring "+cmd.Args[0])
}

func cmdUnignore(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if len(cmd.Args) == 0 {
		notice(c, "usage: /unignore <alias>")
		return
	}
	c.Unignore(cmd.Args[0])
	notice(c, "no longer ignoring "+cmd.Args[0])
}

func cmdSearch(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	channel, ok := resolveChannel(nil, contextChannel)
	if !ok || cmd.RawArgs == "" {
		notice(c, "usage: /search <term> (in the current channel)")
		return
	}
	results := st.SearchChannelMessages(channel, cmd.RawArgs, 8)
	lines := make([]string, 0, len(results))
	for _, m := range results {
		lines = append(lines, m.SenderAlias+": "+m.Body)
	}
	notice(c, strings.Join(lines, " | "))
}

func cmdNoop(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	notice(c, "/"+cmd.Name+" has no effect in this gateway")
}

func cmdBot(c *hub.Client, alias, contextChannel string, cmd *cmdparser.Command) {
	if len(cmd.Args) == 0 || cmd.Args[0] == "list" {
		bots := st.ListBots()
		names := make([]string, 0, len(bots))
		for _, b := range bots {
			names = append(names, b.Name)
		}
		notice(c, "registered bots: "+strings.Join(names, ", "))
		return
	}
	if cmd.Args[0] != "run" || len(cmd.Args) < 2 {
		notice(c, "usage: /bot run <botId> [args]")
		return
	}
	if contextChannel == "" {
		notice(c, "no active channel for /bot run")
		return
	}
	reply, err := dispatcher.InvokeBot(alias, cmd.Args[1], contextChannel, "run", cmd.Args[2:])
	if err != nil {
		notice(c, "/bot run failed: "+err.Error())
		return
	}
	notice(c, reply)
}

func hasMode(modes []string, mode string) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}
