package ratelimit_test

import (
	"testing"
	"time"

	"github.com/Leopold1975/microblog/internal/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
)

func TestAllowPerKey(t *testing.T) {
	krl := ratelimit.New(0.001, 2, time.Minute)

	assert.True(t, krl.Allow("1.1.1.1"))
	assert.True(t, krl.Allow("1.1.1.1"))
	assert.False(t, krl.Allow("1.1.1.1"))

	assert.True(t, krl.Allow("2.2.2.2"))
}

func TestSweep(t *testing.T) {
	krl := ratelimit.New(1, 1, time.Minute)

	krl.Allow("a")
	krl.Allow("b")
	assert.Equal(t, 2, krl.Len())

	krl.Sweep(time.Now())
	assert.Equal(t, 2, krl.Len())

	krl.Sweep(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, krl.Len())
}
