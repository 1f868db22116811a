package dnerrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncrementAccumulates(t *testing.T) {
	r := New()
	assert.Equal(t, 1, r.Increment("dn1"))
	assert.Equal(t, 2, r.Increment("dn1"))
	assert.Equal(t, 2, r.Get("dn1"))
	assert.Equal(t, 0, r.Get("dn2"))
}

func TestOverThresholdIsStrictlyGreaterThan(t *testing.T) {
	r := New()
	for i := 0; i < 5; i++ {
		r.Increment("dn1")
	}
	assert.False(t, r.OverThreshold("dn1", 5))
	r.Increment("dn1")
	assert.True(t, r.OverThreshold("dn1", 5))
}

func TestOverThresholdUnknownNodeIsFalse(t *testing.T) {
	r := New()
	assert.False(t, r.OverThreshold("dn1", 0))
}
