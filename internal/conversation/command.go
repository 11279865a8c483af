package conversation

import (
	"slices"
	"time"

	"github.com/spigell/peanuts-cli/internal/platform"
)

// sendCommand is the optimistic local part of one send. compensate undoes apply.
// All methods are called with the session mutex held.
type sendCommand struct {
	s           *Session
	provisional platform.Message
}

func (s *Session) newSendCommand(content string) *sendCommand {
	return &sendCommand{
		s: s,
		provisional: platform.Message{
			ID:        s.newID(),
			Role:      platform.RoleCandidate,
			Content:   content,
			CreatedAt: s.now().UTC().Format(time.RFC3339Nano),
		},
	}
}

func (c *sendCommand) apply() {
	c.s.messages = append(c.s.messages, c.provisional)
	sortByTime(c.s.messages)
}

func (c *sendCommand) compensate() {
	c.s.messages = slices.DeleteFunc(c.s.messages, func(m platform.Message) bool {
		return m.ID == c.provisional.ID
	})
}

// commit settles the echo locally: the provisional message stays and the reply is appended.
// The authoritative history replaces both once it is fetched.
func (c *sendCommand) commit(reply *platform.Message) {
	c.compensate()
	c.s.messages = append(c.s.messages, c.provisional)
	if reply != nil {
		c.s.messages = append(c.s.messages, *reply)
	}
	sortByTime(c.s.messages)
}
