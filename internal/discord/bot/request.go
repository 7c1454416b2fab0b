package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/bwmarrin/discordgo"
)

// UserError is shown to the invoking user as is.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string {
	return e.Msg
}

func Errorf(format string, a ...any) error {
	return &UserError{Msg: fmt.Sprintf(format, a...)}
}

func IsUserError(err error) (*UserError, bool) {
	var uerr *UserError
	ok := errors.As(err, &uerr)
	return uerr, ok
}

// Request is one command invocation, from either a prefixed message or a
// slash command. Args hold the words after the command name; for slash
// commands they are the subcommand names followed by the option values,
// with users, roles and channels written as mentions.
type Request struct {
	Client rest.Client
	Shard  int

	GuildID   string
	ChannelID string
	Author    *discordgo.User
	Member    *discordgo.Member

	Command string
	Args    []string

	Message     *discordgo.Message
	Interaction *discordgo.Interaction

	responded bool
}

func (r *Request) Arg(i int) string {
	if i < 0 || i >= len(r.Args) {
		return ""
	}
	return r.Args[i]
}

// Rest joins every arg from i on.
func (r *Request) Rest(i int) string {
	if i >= len(r.Args) {
		return ""
	}
	return strings.Join(r.Args[i:], " ")
}

// Reply answers the invocation: the interaction response for the first
// slash reply, a channel message otherwise.
func (r *Request) Reply(content string) error {
	if r.Interaction != nil && !r.responded {
		r.responded = true
		return r.Client.Respond(r.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: content},
		})
	}

	_, err := r.Client.SendMessage(r.ChannelID, content)
	return err
}

// ReplyComplex sends data as a channel message so its id is known, e.g.
// to attach an operation to it. A slash invocation gets a short
// ephemeral acknowledgement first.
func (r *Request) ReplyComplex(data *discordgo.MessageSend) (*discordgo.Message, error) {
	if r.Interaction != nil && !r.responded {
		r.responded = true
		err := r.Client.Respond(r.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: "👇", Flags: discordgo.MessageFlagsEphemeral},
		})
		if err != nil {
			return nil, err
		}
	}

	return r.Client.SendComplex(r.ChannelID, data)
}

func (r *Request) Responded() bool {
	return r.responded
}

// RequirePermission fails with a UserError unless the author holds perm in
// the request channel.
func (r *Request) RequirePermission(perm int64) error {
	if r.GuildID == "" {
		return Errorf("This command only works in a server.")
	}

	ok, err := rest.HasPermission(r.Client, r.Author.ID, r.ChannelID, perm)
	if err != nil {
		return err
	}
	if !ok {
		return Errorf("You need the **%s** permission to use this.", rest.PermissionName(perm))
	}
	return nil
}

// FlattenOptions turns slash command options into Request args.
func FlattenOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) []string {
	var args []string
	for _, o := range opts {
		switch o.Type {
		case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
			args = append(args, o.Name)
			args = append(args, FlattenOptions(o.Options)...)
		case discordgo.ApplicationCommandOptionUser:
			args = append(args, "<@"+fmt.Sprint(o.Value)+">")
		case discordgo.ApplicationCommandOptionRole:
			args = append(args, "<@&"+fmt.Sprint(o.Value)+">")
		case discordgo.ApplicationCommandOptionChannel:
			args = append(args, "<#"+fmt.Sprint(o.Value)+">")
		case discordgo.ApplicationCommandOptionInteger:
			args = append(args, strconv.FormatInt(o.IntValue(), 10))
		case discordgo.ApplicationCommandOptionBoolean:
			args = append(args, strconv.FormatBool(o.BoolValue()))
		case discordgo.ApplicationCommandOptionString:
			args = append(args, strings.Fields(o.StringValue())...)
		default:
			args = append(args, fmt.Sprint(o.Value))
		}
	}
	return args
}

func parseMention(s, prefix string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, ">") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, prefix), ">")
	}
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return "", false
	}
	return s, true
}

// ParseUserID accepts a user mention or a raw id.
func ParseUserID(s string) (string, bool) {
	if strings.HasPrefix(s, "<@!") {
		return parseMention(s, "<@!")
	}
	return parseMention(s, "<@")
}

func ParseRoleID(s string) (string, bool) {
	return parseMention(s, "<@&")
}

func ParseChannelID(s string) (string, bool) {
	return parseMention(s, "<#")
}
