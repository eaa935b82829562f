package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	applog "github.com/tazhibayda/profile-service/internal/log"
)

type fakeAcker struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcker) Ack(bool) error { f.acked = true; return nil }
func (f *fakeAcker) Nack(_ bool, requeue bool) error {
	f.nacked, f.requeue = true, requeue
	return nil
}

func TestSettle(t *testing.T) {
	ok := &fakeAcker{}
	settle(ok, false, nil)
	assert.True(t, ok.acked)

	retry := &fakeAcker{}
	settle(retry, false, errors.New("smtp down"))
	assert.True(t, retry.nacked)
	assert.True(t, retry.requeue)

	drop := &fakeAcker{}
	settle(drop, true, errors.New("smtp down"))
	assert.True(t, drop.nacked)
	assert.False(t, drop.requeue)
}

type recordingPub struct {
	mu     sync.Mutex
	keys   []string
	reqIDs []string
	err    error
}

func (r *recordingPub) Publish(_ context.Context, _, key string, _ any, reqID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	r.reqIDs = append(r.reqIDs, reqID)
	return r.err
}
func (r *recordingPub) Close() error { return nil }

func (r *recordingPub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

func TestEmitterCarriesRequestIDAndSurvivesCancel(t *testing.T) {
	pub := &recordingPub{err: errors.New("broker gone")}
	e := NewEmitter(pub, ProfileExchange, zap.NewNop())

	ctx, cancel := context.WithCancel(applog.WithRequestID(context.Background(), "req-1"))
	e.Emit(ctx, KeySectionUpdated, SectionUpdated{ProfileID: "p", Section: "skills", Version: 1})
	cancel()

	assert.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 10*time.Millisecond)
	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []string{KeySectionUpdated}, pub.keys)
	assert.Equal(t, []string{"req-1"}, pub.reqIDs)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var e *Emitter
	e.Emit(context.Background(), KeyRegistered, ProfileRegistered{})
}
