package gateway

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Intents covers every event the dispatcher has handlers for. Member and
// message content intents are privileged and must be enabled for the
// application.
const Intents = discordgo.IntentsAllWithoutPrivileged |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsMessageContent

// NewSession creates the session for shard id out of total. It does not
// connect.
func NewSession(token string, id, total int) (*discordgo.Session, error) {
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}

	s, err := discordgo.New(token)
	if err != nil {
		return nil, err
	}

	s.ShardID = id
	s.ShardCount = total
	s.Identify.Intents = Intents
	s.StateEnabled = true

	return s, nil
}
