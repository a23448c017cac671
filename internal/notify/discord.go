package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"fundledger/internal/core"
)

type discordSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts notifications to one channel over the REST API. It never
// opens a gateway connection.
type Discord struct {
	session   discordSender
	channelID string
}

func NewDiscord(token, channelID string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return &Discord{session: session, channelID: channelID}, nil
}

func (d *Discord) Notify(ctx context.Context, t core.Transaction) error {
	_, err := d.session.ChannelMessageSend(d.channelID, Message(t), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}
