package api

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorLimiterEvictsIdleActors(t *testing.T) {
	now := testNow
	l := newActorLimiter(1, 2)
	l.now = func() time.Time { return now }

	for i := range 100 {
		assert.True(t, l.allow(fmt.Sprintf("donor:%d", i)))
	}
	assert.True(t, l.allow("hospital:busy"))
	assert.True(t, l.allow("hospital:busy"))
	assert.False(t, l.allow("hospital:busy"))
	require.Len(t, l.entries, 101)

	// Активный вызывающий переживает чистку и сохраняет своё состояние
	now = now.Add(l.idleTTL - time.Second)
	assert.True(t, l.allow("hospital:busy"))
	now = now.Add(time.Second)
	assert.True(t, l.allow("hospital:new"))

	assert.Len(t, l.entries, 2)
	assert.Contains(t, l.entries, "hospital:busy")
	assert.Contains(t, l.entries, "hospital:new")
}

func TestActorLimiterIdleTTLCoversRefill(t *testing.T) {
	l := newActorLimiter(0.001, 5)
	assert.Equal(t, 5000*time.Second, l.idleTTL)

	l = newActorLimiter(10, 5)
	assert.Equal(t, limiterIdleTTL, l.idleTTL)
}
