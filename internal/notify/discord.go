package notify

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// discordSender abstracts the Discord API call we use, enabling test mocks.
type discordSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts messages to a Discord channel using a bot token.
type Discord struct {
	session discordSender
	channel string
}

// NewDiscord returns a Discord notifier. The session is created lazily on
// first post so a bad token does not break startup.
func NewDiscord(token, channel string) *Discord {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		// discordgo.New only fails on malformed parameters; keep a nil
		// session and report it on Post.
		return &Discord{channel: channel}
	}
	return &Discord{session: session, channel: channel}
}

// Name implements Notifier.
func (d *Discord) Name() string { return "discord" }

// Post implements Notifier.
func (d *Discord) Post(text string) error {
	if d.session == nil {
		return fmt.Errorf("discord session not configured")
	}
	if _, err := d.session.ChannelMessageSend(d.channel, text); err != nil {
		return fmt.Errorf("send to %s: %w", d.channel, err)
	}
	return nil
}
