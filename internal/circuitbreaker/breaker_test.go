package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := New(3, time.Minute, nil)

	require.NoError(t, b.Allow())
	b.Record(errBoom)
	b.Record(errBoom)
	assert.Equal(t, StateClosed, b.State())

	b.Record(errBoom)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen)
}

func TestBreaker_SuccessResetsFailureRun(t *testing.T) {
	b := New(3, time.Minute, nil)

	b.Record(errBoom)
	b.Record(errBoom)
	b.Record(nil)
	b.Record(errBoom)
	b.Record(errBoom)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenProbesThenCloses(t *testing.T) {
	b := New(1, 10*time.Millisecond, nil)

	b.Record(errBoom)
	assert.Equal(t, StateOpen, b.State())

	time.Sleep(15 * time.Millisecond)
	require.NoError(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.Record(nil)
	b.Record(nil)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := New(1, 10*time.Millisecond, nil)

	b.Record(errBoom)
	time.Sleep(15 * time.Millisecond)
	require.NoError(t, b.Allow())

	b.Record(errBoom)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen)
}

func TestBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	b := New(1, time.Minute, func(from, to State) {
		transitions = append(transitions, from.String()+">"+to.String())
	})

	b.Record(errBoom)
	assert.Equal(t, []string{"closed>open"}, transitions)
}
