package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerTripsAndRecovers(t *testing.T) {
	var transitions []State
	b := New(Settings{
		Name:             "store",
		FailureThreshold: 2,
		HalfOpenRequests: 1,
		OpenTimeout:      20 * time.Millisecond,
		OnStateChange:    func(_ string, _, to State) { transitions = append(transitions, to) },
	}, nil)

	fail := func() (int, error) { return 0, errors.New("down") }
	ok := func() (int, error) { return 7, nil }

	_, err := Execute(b, fail)
	require.Error(t, err)
	_, err = Execute(b, fail)
	require.Error(t, err)
	assert.Equal(t, StateOpen, b.State())

	calls := 0
	_, err = Execute(b, func() (int, error) { calls++; return 1, nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.Zero(t, calls)

	time.Sleep(40 * time.Millisecond)
	got, err := Execute(b, ok)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestExecutePassesErrorsThrough(t *testing.T) {
	b := New(DefaultSettings("x"), nil)
	boom := errors.New("boom")
	_, err := Execute(b, func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "x", b.Name())
	assert.Equal(t, "closed", b.State().String())
}
