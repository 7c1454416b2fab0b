package rest

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Client is the outbound half of a gateway connection. Every call reports
// its failure so callers can react to permission loss.
type Client interface {
	BotUserID() string

	SendMessage(channelID, content string) (*discordgo.Message, error)
	SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	DeleteMessage(channelID, messageID string) error
	SendDM(userID, content string) (*discordgo.Message, error)

	AddRole(guildID, userID, roleID string) error
	RemoveRole(guildID, userID, roleID string) error
	Ban(guildID, userID, reason string, deleteDays int) error

	Guild(guildID string) (*discordgo.Guild, error)
	Member(guildID, userID string) (*discordgo.Member, error)
	Permissions(userID, channelID string) (int64, error)

	Respond(intr *discordgo.Interaction, resp *discordgo.InteractionResponse) error
}

// SessionClient adapts a discordgo session to Client.
type SessionClient struct {
	Session *discordgo.Session
}

func NewSessionClient(s *discordgo.Session) *SessionClient {
	return &SessionClient{Session: s}
}

func (c *SessionClient) BotUserID() string {
	if c.Session.State == nil || c.Session.State.User == nil {
		return ""
	}
	return c.Session.State.User.ID
}

func (c *SessionClient) SendMessage(channelID, content string) (*discordgo.Message, error) {
	return c.Session.ChannelMessageSend(channelID, content)
}

func (c *SessionClient) SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return c.Session.ChannelMessageSendComplex(channelID, data)
}

func (c *SessionClient) DeleteMessage(channelID, messageID string) error {
	return c.Session.ChannelMessageDelete(channelID, messageID)
}

func (c *SessionClient) SendDM(userID, content string) (*discordgo.Message, error) {
	ch, err := c.Session.UserChannelCreate(userID)
	if err != nil {
		return nil, err
	}
	return c.Session.ChannelMessageSend(ch.ID, content)
}

func (c *SessionClient) AddRole(guildID, userID, roleID string) error {
	return c.Session.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (c *SessionClient) RemoveRole(guildID, userID, roleID string) error {
	return c.Session.GuildMemberRoleRemove(guildID, userID, roleID)
}

func (c *SessionClient) Ban(guildID, userID, reason string, deleteDays int) error {
	return c.Session.GuildBanCreateWithReason(guildID, userID, reason, deleteDays)
}

func (c *SessionClient) Guild(guildID string) (*discordgo.Guild, error) {
	if c.Session.State != nil {
		if g, err := c.Session.State.Guild(guildID); err == nil {
			return g, nil
		}
	}
	return c.Session.Guild(guildID)
}

func (c *SessionClient) Member(guildID, userID string) (*discordgo.Member, error) {
	if c.Session.State != nil {
		if m, err := c.Session.State.Member(guildID, userID); err == nil {
			return m, nil
		}
	}
	return c.Session.GuildMember(guildID, userID)
}

func (c *SessionClient) Permissions(userID, channelID string) (int64, error) {
	if c.Session.State != nil {
		if p, err := c.Session.State.UserChannelPermissions(userID, channelID); err == nil {
			return p, nil
		}
	}
	return c.Session.UserChannelPermissions(userID, channelID)
}

func (c *SessionClient) Respond(intr *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return c.Session.InteractionRespond(intr, resp)
}

// MissingPermissionError is returned when a permission check done before
// an outbound call fails.
type MissingPermissionError struct {
	Permission int64
}

func (e *MissingPermissionError) Error() string {
	return "missing permission: " + PermissionName(e.Permission)
}

func CheckDiscordErrCode(err error, code int) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == code
}

// IsPermissionError reports whether err means the bot lacks a permission
// or access to the target.
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}

	var permErr *MissingPermissionError
	if errors.As(err, &permErr) {
		return true
	}

	if CheckDiscordErrCode(err, discordgo.ErrCodeMissingPermissions) ||
		CheckDiscordErrCode(err, discordgo.ErrCodeMissingAccess) {
		return true
	}

	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden
}

// HasPermission reports whether userID holds perm in channelID. Administrator
// implies every permission.
func HasPermission(c Client, userID, channelID string, perm int64) (bool, error) {
	p, err := c.Permissions(userID, channelID)
	if err != nil {
		return false, err
	}
	return p&discordgo.PermissionAdministrator != 0 || p&perm == perm, nil
}

var permissionNames = map[int64]string{
	discordgo.PermissionManageMessages: "Manage Messages",
	discordgo.PermissionManageRoles:    "Manage Roles",
	discordgo.PermissionBanMembers:     "Ban Members",
	discordgo.PermissionKickMembers:    "Kick Members",
	discordgo.PermissionSendMessages:   "Send Messages",
	discordgo.PermissionAdministrator:  "Administrator",
	discordgo.PermissionManageServer:   "Manage Server",
}

func PermissionName(p int64) string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return "required permission"
}
