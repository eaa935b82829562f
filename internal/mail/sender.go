// Package mail turns profile events into outgoing notifications.
package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	applog "github.com/tazhibayda/profile-service/internal/log"
	"github.com/tazhibayda/profile-service/internal/queue"
)

// Message is one outgoing mail.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Transport delivers a Message.
type Transport interface {
	Send(ctx context.Context, m Message) error
}

// LogTransport writes mail to the log instead of delivering it.
type LogTransport struct{ Log *zap.Logger }

func (t LogTransport) Send(ctx context.Context, m Message) error {
	applog.WithDD(ctx, t.Log).Info("mail",
		zap.String("from", m.From), zap.String("to", m.To), zap.String("subject", m.Subject))
	return nil
}

type Sender struct {
	From      string
	Transport Transport
	Log       *zap.Logger
}

func NewSender(from string, t Transport, log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	if t == nil {
		t = LogTransport{Log: log}
	}
	return &Sender{From: from, Transport: t, Log: log}
}

// Handle is a queue.Handler. Undecodable events are dropped; transport
// failures are returned so the delivery is retried.
func (s *Sender) Handle(ctx context.Context, key string, body []byte) error {
	switch key {
	case queue.KeyRegistered:
		var ev queue.ProfileRegistered
		if err := json.Unmarshal(body, &ev); err != nil {
			s.Log.Warn("dropping malformed event", zap.String("key", key), zap.Error(err))
			return nil
		}
		return s.welcome(ctx, ev)
	default:
		return nil
	}
}

func (s *Sender) welcome(ctx context.Context, ev queue.ProfileRegistered) error {
	if ev.Email == "" {
		return nil
	}
	err := s.Transport.Send(ctx, Message{
		From:    s.From,
		To:      ev.Email,
		Subject: "Welcome",
		Body:    fmt.Sprintf("Hi %s, your profile is ready.", ev.Username),
	})
	if err != nil {
		return fmt.Errorf("send welcome to profile %s: %w", ev.ProfileID, err)
	}
	return nil
}
