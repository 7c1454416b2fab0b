package dispatch

import (
	"time"

	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/LeBulldoge/kagura/internal/shard"
)

// Kind names an inbound event. Gateway dispatch events use their gateway
// name; the rest are produced by the gateway listener itself.
type Kind string

const (
	KindHeartbeat    Kind = "HEARTBEAT_ACK"
	KindStatusChange Kind = "STATUS_CHANGE"

	KindReady             Kind = "READY"
	KindMessageCreate     Kind = "MESSAGE_CREATE"
	KindMessageUpdate     Kind = "MESSAGE_UPDATE"
	KindMessageDelete     Kind = "MESSAGE_DELETE"
	KindReactionAdd       Kind = "MESSAGE_REACTION_ADD"
	KindGuildMemberAdd    Kind = "GUILD_MEMBER_ADD"
	KindGuildMemberRemove Kind = "GUILD_MEMBER_REMOVE"
	KindGuildMemberUpdate Kind = "GUILD_MEMBER_UPDATE"
	KindGuildBanAdd       Kind = "GUILD_BAN_ADD"
	KindGuildBanRemove    Kind = "GUILD_BAN_REMOVE"
	KindInteractionCreate Kind = "INTERACTION_CREATE"
)

type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusResumed      Status = "resumed"
)

// StatusChange is the payload of KindStatusChange events.
type StatusChange struct {
	Status Status
}

// Heartbeat is the payload of KindHeartbeat events.
type Heartbeat struct {
	Latency time.Duration
}

type Event struct {
	Shard  int
	Kind   Kind
	Data   any
	Client rest.Client
	At     time.Time

	// Cached is the message as last seen on this shard, filled in for
	// MESSAGE_UPDATE and MESSAGE_DELETE when it was cached.
	Cached *shard.CachedMessage
}
