// Package Notifications pushes urgent delivery requests to the ward devices.
package Notifications

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"

	"Lulan/Models"
)

const DefaultTopic = "urgent-deliveries"

type Notifier interface {
	TaskCreated(ctx context.Context, task Models.Task, flags Models.CapabilityFlags) error
}

// Sender is the part of messaging.Client the FCM notifier uses.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type FCM struct {
	Client Sender
	Topic  string
}

func NewFCM(ctx context.Context, app *firebase.App, topic string) (*FCM, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Messaging client: %v", err)
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &FCM{Client: client, Topic: topic}, nil
}

// TaskCreated sends a topic message for URGENT tasks while notifications are
// enabled. Everything else is ignored.
func (n *FCM) TaskCreated(ctx context.Context, task Models.Task, flags Models.CapabilityFlags) error {
	if !alerting(task, flags) {
		return nil
	}
	response, err := n.Client.Send(ctx, Message(n.Topic, task))
	if err != nil {
		return fmt.Errorf("error sending Firebase message: %v", err)
	}
	log.Printf("Successfully sent urgent task notification for %s: %s", task.ID, response)
	return nil
}

func Message(topic string, task Models.Task) *messaging.Message {
	return &messaging.Message{
		Topic: topic,
		Data: map[string]string{
			"task_id":     task.ID,
			"priority":    string(task.Priority),
			"source":      task.Source,
			"destination": task.Destination,
			"requester":   task.Requester,
			"timestamp":   task.Timestamp,
		},
		Notification: &messaging.Notification{
			Title: "Urgent delivery " + task.ID,
			Body:  Summary(task),
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Color: "#e53935",
				Sound: "default",
			},
			Priority: "high",
		},
	}
}

func alerting(task Models.Task, flags Models.CapabilityFlags) bool {
	return task.IsUrgent() && flags.NotificationsEnabled
}

// Summary is the one line used by the chat and mail channels.
func Summary(task Models.Task) string {
	return fmt.Sprintf("%s to %s: %s (requested by %s)",
		task.Source, task.Destination, strings.Join(task.Items, ", "), task.Requester)
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) TaskCreated(ctx context.Context, task Models.Task, flags Models.CapabilityFlags) error {
	var errs []error
	for _, n := range f {
		if err := n.TaskCreated(ctx, task, flags); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log is used when there is no hosted project.
type Log struct{}

func (Log) TaskCreated(ctx context.Context, task Models.Task, flags Models.CapabilityFlags) error {
	if alerting(task, flags) {
		log.Printf("Urgent task %s to %s (notifications not configured)", task.ID, task.Destination)
	}
	return nil
}
