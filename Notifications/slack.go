package Notifications

import (
	"context"
	"fmt"
	"log"

	"github.com/slack-go/slack"

	"Lulan/Models"
)

// Poster is the part of slack.Client the channel notifier uses.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Slack posts urgent tasks to a ward channel.
type Slack struct {
	Client  Poster
	Channel string
}

func NewSlack(botToken, channel string) *Slack {
	api := slack.New(botToken, slack.OptionDebug(false))
	return &Slack{Client: api, Channel: channel}
}

func (n *Slack) TaskCreated(ctx context.Context, task Models.Task, flags Models.CapabilityFlags) error {
	if !alerting(task, flags) {
		return nil
	}
	_, timestamp, err := n.Client.PostMessageContext(ctx, n.Channel,
		slack.MsgOptionText(SlackText(task), false),
	)
	if err != nil {
		return fmt.Errorf("error posting to Slack: %v", err)
	}
	log.Printf("Posted urgent task %s to Slack at %s", task.ID, timestamp)
	return nil
}

func SlackText(task Models.Task) string {
	return fmt.Sprintf(":rotating_light: *Urgent delivery %s*\n%s\n_%s_", task.ID, Summary(task), task.Timestamp)
}
