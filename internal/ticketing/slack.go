// Package ticketing implements the open_support_ticket collaborator by
// posting to a configured Slack channel, grounded on the teacher's Slack
// channel adapter (github.com/slack-go/slack).
package ticketing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
)

// SlackTicketing posts escalations to a support channel. The "ticket id" is
// a locally minted identifier correlated with the Slack message timestamp
// so a human can cross-reference it in the channel.
type SlackTicketing struct {
	client    *slack.Client
	channelID string
}

// NewSlackTicketing constructs a ticketing client bound to one channel.
func NewSlackTicketing(token, channelID string) *SlackTicketing {
	return &SlackTicketing{client: slack.New(token), channelID: channelID}
}

// OpenTicket posts the escalation and returns a ticket id the user-facing
// reply can reference.
func (t *SlackTicketing) OpenTicket(ctx context.Context, summary, body string) (string, error) {
	ticketID := uuid.NewString()

	textBlock := slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*%s*\nticket `%s`\n\n%s", summary, ticketID, body), false, false)
	section := slack.NewSectionBlock(textBlock, nil, nil)

	_, _, err := t.client.PostMessageContext(ctx, t.channelID,
		slack.MsgOptionBlocks(section),
		slack.MsgOptionText(summary, false),
	)
	if err != nil {
		return "", fmt.Errorf("ticketing: post to slack: %w", err)
	}

	return ticketID, nil
}
