package notify

import (
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// slackPoster abstracts the Slack API call we use, enabling test mocks.
type slackPoster interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack posts messages to a Slack channel via the Web API.
type Slack struct {
	client  slackPoster
	channel string
}

// NewSlack returns a Slack notifier using a bot token.
func NewSlack(token, channel string) *Slack {
	return &Slack{client: slackapi.New(token), channel: channel}
}

// Name implements Notifier.
func (s *Slack) Name() string { return "slack" }

// Post implements Notifier.
func (s *Slack) Post(text string) error {
	_, _, err := s.client.PostMessage(s.channel, slackapi.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("post to %s: %w", s.channel, err)
	}
	return nil
}
