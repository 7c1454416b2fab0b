// Package resttest provides a recording rest.Client for tests.
package resttest

import (
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/bwmarrin/discordgo"
)

// RESTError builds the error discordgo returns for a failed request.
func RESTError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: http.StatusText(status)},
	}
}

// ErrForbidden is a missing permissions response.
var ErrForbidden = RESTError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions)

// Sent is a channel message or a DM, in which case ChannelID is the user id.
type Sent struct {
	ChannelID string
	Content   string
}

type RoleCall struct {
	GuildID, UserID, RoleID string
}

type BanCall struct {
	GuildID, UserID, Reason string
}

type Calls struct {
	Deleted   []string
	Sent      []Sent
	Complex   []*discordgo.MessageSend
	DMs       []Sent
	Added     []RoleCall
	Removed   []RoleCall
	Bans      []BanCall
	Responses []*discordgo.InteractionResponse
}

// Client records every outbound call. Set the exported fields before use.
type Client struct {
	BotID     string
	Perms     map[string]int64
	GuildInfo *discordgo.Guild
	// Gone lists user ids that are no longer guild members.
	Gone []string

	DeleteErr  error
	RoleErr    error
	DMErr      error
	BanErr     error
	RespondErr error

	mu     sync.Mutex
	calls  Calls
	nextID int
}

var _ rest.Client = (*Client)(nil)

func New() *Client {
	return &Client{
		BotID:     "bot",
		Perms:     map[string]int64{"bot": discordgo.PermissionManageMessages},
		GuildInfo: &discordgo.Guild{ID: "g", Name: "Guild", OwnerID: "owner", MemberCount: 42},
	}
}

func (c *Client) Calls() Calls {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Calls{
		Deleted:   slices.Clone(c.calls.Deleted),
		Sent:      slices.Clone(c.calls.Sent),
		Complex:   slices.Clone(c.calls.Complex),
		DMs:       slices.Clone(c.calls.DMs),
		Added:     slices.Clone(c.calls.Added),
		Removed:   slices.Clone(c.calls.Removed),
		Bans:      slices.Clone(c.calls.Bans),
		Responses: slices.Clone(c.calls.Responses),
	}
}

// SetRoleErr changes RoleErr while calls may be in flight.
func (c *Client) SetRoleErr(err error) {
	c.mu.Lock()
	c.RoleErr = err
	c.mu.Unlock()
}

func (c *Client) messageID() string {
	c.nextID++
	return "sent-" + strconv.Itoa(c.nextID)
}

func (c *Client) BotUserID() string { return c.BotID }

func (c *Client) SendMessage(channelID, content string) (*discordgo.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls.Sent = append(c.calls.Sent, Sent{channelID, content})
	return &discordgo.Message{ID: c.messageID(), ChannelID: channelID, Content: content}, nil
}

func (c *Client) SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls.Complex = append(c.calls.Complex, data)
	return &discordgo.Message{ID: c.messageID(), ChannelID: channelID, Content: data.Content}, nil
}

func (c *Client) DeleteMessage(_, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls.Deleted = append(c.calls.Deleted, messageID)
	return c.DeleteErr
}

func (c *Client) SendDM(userID, content string) (*discordgo.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls.DMs = append(c.calls.DMs, Sent{userID, content})
	if c.DMErr != nil {
		return nil, c.DMErr
	}
	return &discordgo.Message{ID: c.messageID(), Content: content}, nil
}

func (c *Client) AddRole(guildID, userID, roleID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls.Added = append(c.calls.Added, RoleCall{guildID, userID, roleID})
	return c.RoleErr
}

func (c *Client) RemoveRole(guildID, userID, roleID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls.Removed = append(c.calls.Removed, RoleCall{guildID, userID, roleID})
	return c.RoleErr
}

func (c *Client) Ban(guildID, userID, reason string, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls.Bans = append(c.calls.Bans, BanCall{guildID, userID, reason})
	return c.BanErr
}

func (c *Client) Guild(string) (*discordgo.Guild, error) {
	return c.GuildInfo, nil
}

func (c *Client) Member(guildID, userID string) (*discordgo.Member, error) {
	if slices.Contains(c.Gone, userID) {
		return nil, RESTError(http.StatusNotFound, discordgo.ErrCodeUnknownMember)
	}
	return &discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: userID}}, nil
}

func (c *Client) Permissions(userID, _ string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.Perms[userID], nil
}

func (c *Client) Respond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls.Responses = append(c.calls.Responses, resp)
	return c.RespondErr
}
