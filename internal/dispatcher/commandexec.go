package dispatcher

import (
	"encoding/json"

	"ircgateway/internal/hub"
)

// handleCommandExec decodes the payload and hands off to the executor
// supplied at Setup (internal/commands). The dispatcher itself has no idea
// what slash commands exist.
func handleCommandExec(c *hub.Client, raw json.RawMessage) {
	if _, ok := requireAlias(c); !ok {
		return
	}
	var p commandExecPayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed command_exec payload")
		return
	}
	if execCommand == nil {
		c.SendError(hub.ErrInternal, "command interpreter not wired")
		return
	}
	execCommand(c, p.Raw, p.ContextChannel)
}
