package format

import (
	"errors"
	"log/slog"

	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/bwmarrin/discordgo"
)

const genericApology = "Sorry, something went wrong while doing that. Please try again later."

// UserMessage picks the text shown to a user for err: the missing
// permission by name, or a generic apology that leaks nothing.
func UserMessage(err error) string {
	var permErr *rest.MissingPermissionError
	if errors.As(err, &permErr) {
		return "I need the **" + rest.PermissionName(permErr.Permission) + "** permission to do that."
	}
	if rest.IsPermissionError(err) {
		return "I don't have the permissions needed to do that here."
	}
	return genericApology
}

func DisplayInteractionError(c rest.Client, intr *discordgo.Interaction, content string) {
	slog.Debug("displaying interaction error", "content", content)
	err := c.Respond(intr, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil && !rest.CheckDiscordErrCode(err, discordgo.ErrCodeInteractionHasAlreadyBeenAcknowledged) {
		slog.Error("failed displaying error", "err", err)
	}
}
