package service

import (
	"context"
	"time"

	applog "engage-service/pkg/zap"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Notifier delivers a push notification for a direct message whose recipient
// has no live connection. Delivery is best-effort; failures are logged only.
type Notifier interface {
	PushMessage(ctx context.Context, recipientID, senderID, preview string)
}

type fcmNotifier struct {
	client   *messaging.Client
	presence *PresenceService
	log      applog.Logger
}

// NewNotifier builds an FCM-backed notifier. With no credentials file
// configured it returns a no-op implementation.
func NewNotifier(ctx context.Context, credentialsFile string, presence *PresenceService, log applog.Logger) Notifier {
	if credentialsFile == "" {
		log.Info("firebase: no credentials configured, push notifications disabled")
		return &noopNotifier{}
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		log.Warnf("firebase: init failed, push notifications disabled: %v", err)
		return &noopNotifier{}
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		log.Warnf("firebase: messaging client failed, push notifications disabled: %v", err)
		return &noopNotifier{}
	}

	log.Info("firebase: push notifications enabled")
	return &fcmNotifier{
		client:   client,
		presence: presence,
		log:      log,
	}
}

func (n *fcmNotifier) PushMessage(ctx context.Context, recipientID, senderID, preview string) {

	token, err := n.presence.DeviceToken(ctx, recipientID)
	if err != nil {
		n.log.Warnf("push: failed to look up device token for %s: %v", recipientID, err)
		return
	}
	if token == "" {
		return
	}

	if len(preview) > 120 {
		preview = preview[:120]
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err = n.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: "New message",
			Body:  preview,
		},
		Data: map[string]string{
			"sender_id": senderID,
		},
	})
	if err != nil {
		n.log.Warnf("push: delivery to %s failed: %v", recipientID, err)
	}
}

type noopNotifier struct{}

func (n *noopNotifier) PushMessage(ctx context.Context, recipientID, senderID, preview string) {}
