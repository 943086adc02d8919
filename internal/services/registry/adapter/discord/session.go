package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/louisbranch/roleplay-registry/internal/platform/timeouts"
)

// Responder answers interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// CommandRegistrar replaces a guild's slash commands.
type CommandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Serve handles one gateway interaction and sends the reply. Non-command
// interactions are ignored.
func (h *Handler) Serve(ctx context.Context, responder Responder, i *discordgo.Interaction) {
	inv, ok := FromInteraction(i)
	if !ok {
		return
	}
	reply := h.Handle(ctx, inv)
	if err := responder.InteractionRespond(i, Response(reply), discordgo.WithContext(ctx)); err != nil {
		log.Printf("discord: respond %s [%s]: %v", inv.Command, inv.CorrelationID, err)
	}
}

// Response converts a reply to an immediate channel message. Mentions are
// rendered but never notify.
func Response(reply Reply) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{
		Content:         reply.Content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if reply.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

// SyncCommands replaces the guild's registered commands with Commands().
func SyncCommands(ctx context.Context, registrar CommandRegistrar, appID, guildID string) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.CommandSync)
	defer cancel()

	registered, err := registrar.ApplicationCommandBulkOverwrite(appID, guildID, Commands(), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("overwrite guild commands: %w", err)
	}
	log.Printf("discord: registered %d commands in guild %s", len(registered), guildID)
	return nil
}
