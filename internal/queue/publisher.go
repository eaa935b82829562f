package queue

import (
	"context"

	"go.uber.org/zap"

	applog "github.com/tazhibayda/profile-service/internal/log"
)

const (
	ProfileExchange = "profile.events"

	KeyRegistered     = "profile.registered"
	KeyLoggedIn       = "profile.loggedin"
	KeySectionUpdated = "profile.section.updated"
)

type Publisher interface {
	Publish(ctx context.Context, exchange, key string, event any, reqID string) error
	Close() error
}

type NoopPub struct{}

func NewNoop() Publisher { return NoopPub{} }

func (NoopPub) Publish(ctx context.Context, exchange, key string, event any, reqID string) error {
	return nil
}
func (NoopPub) Close() error { return nil }

type ProfileRegistered struct {
	ProfileID string `json:"profile_id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Provider  string `json:"provider"`
}

type ProfileLoggedIn struct {
	ProfileID string `json:"profile_id"`
	Provider  string `json:"provider"`
}

type SectionUpdated struct {
	ProfileID string `json:"profile_id"`
	Section   string `json:"section"`
	Version   int64  `json:"version"`
}

// Emitter publishes fire-and-forget events. A publish failure is logged and
// never reaches the request that caused it.
type Emitter struct {
	Pub      Publisher
	Exchange string
	Log      *zap.Logger
}

func NewEmitter(pub Publisher, exchange string, log *zap.Logger) *Emitter {
	if pub == nil {
		pub = NewNoop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{Pub: pub, Exchange: exchange, Log: log}
}

func (e *Emitter) Emit(ctx context.Context, key string, event any) {
	if e == nil {
		return
	}
	reqID := applog.RequestID(ctx)
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := e.Pub.Publish(ctx, e.Exchange, key, event, reqID); err != nil {
			applog.WithDD(ctx, e.Log).Warn("event publish failed",
				zap.String("key", key), zap.Error(err))
		}
	}()
}
