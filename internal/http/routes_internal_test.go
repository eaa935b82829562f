package http

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tazhibayda/profile-service/internal/profile"
)

func TestSectionRoutesCoverEverySection(t *testing.T) {
	seenSection := map[profile.Section]bool{}
	seenPath := map[string]bool{}
	for _, r := range sectionRoutes {
		assert.False(t, seenSection[r.section], "section %s routed twice", r.section)
		assert.False(t, seenPath[r.path], "path %s used twice", r.path)
		seenSection[r.section], seenPath[r.path] = true, true
	}
	for _, s := range profile.Sections() {
		assert.True(t, seenSection[s], "no route for %s", s)
	}
}

func TestRateLimiterEvictsExpiredBuckets(t *testing.T) {
	at := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return at }

	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow(fmt.Sprintf("ip-%d", i)))
	}
	assert.False(t, rl.Allow("ip-0"))
	assert.Len(t, rl.buckets, 100)

	at = at.Add(2 * time.Minute)
	assert.True(t, rl.Allow("fresh"))
	assert.Len(t, rl.buckets, 1)
	assert.True(t, rl.Allow("ip-0"), "expired window starts over")
}
