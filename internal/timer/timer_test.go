package timer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unotable/internal/game"
)

func TestTimeoutFiresOnce(t *testing.T) {
	m := NewManager()
	sessionID := uuid.New()
	fired := make(chan struct{}, 2)

	m.Reset(sessionID, game.RoundTimerConfig{
		Seconds:   1,
		OnTimeout: func() { fired <- struct{}{} },
	})

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout never fired")
	}
	assert.Equal(t, 0, m.Remaining(sessionID), "the countdown is gone after expiry")

	select {
	case <-fired:
		t.Fatal("timeout fired twice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTicksReportRemainingSeconds(t *testing.T) {
	m := NewManager()
	sessionID := uuid.New()
	defer m.Cancel(sessionID)
	ticks := make(chan int, 16)

	m.Reset(sessionID, game.RoundTimerConfig{
		Seconds: 5,
		OnTick:  func(remaining int) { ticks <- remaining },
	})

	select {
	case remaining := <-ticks:
		assert.Greater(t, remaining, 0)
		assert.LessOrEqual(t, remaining, 5)
	case <-time.After(3 * time.Second):
		t.Fatal("no tick arrived")
	}
}

func TestCancelStopsCountdown(t *testing.T) {
	m := NewManager()
	sessionID := uuid.New()
	fired := make(chan struct{}, 1)

	m.Reset(sessionID, game.RoundTimerConfig{
		Seconds:   1,
		OnTimeout: func() { fired <- struct{}{} },
	})
	m.Cancel(sessionID)

	select {
	case <-fired:
		t.Fatal("cancelled countdown still fired")
	case <-time.After(1500 * time.Millisecond):
	}
	assert.Equal(t, 0, m.Remaining(sessionID))
}

func TestResetReplacesCountdown(t *testing.T) {
	m := NewManager()
	sessionID := uuid.New()
	defer m.Cancel(sessionID)
	firstFired := make(chan struct{}, 1)

	m.Reset(sessionID, game.RoundTimerConfig{
		Seconds:   1,
		OnTimeout: func() { firstFired <- struct{}{} },
	})
	m.Reset(sessionID, game.RoundTimerConfig{Seconds: 30})

	select {
	case <-firstFired:
		t.Fatal("replaced countdown still fired")
	case <-time.After(1500 * time.Millisecond):
	}
	remaining := m.Remaining(sessionID)
	require.Greater(t, remaining, 25)
	assert.LessOrEqual(t, remaining, 30)
}

func TestRacedExpiryKeepsReplacementCountdown(t *testing.T) {
	m := NewManager()
	sessionID := uuid.New()
	defer m.Cancel(sessionID)

	m.Reset(sessionID, game.RoundTimerConfig{Seconds: 30})
	first := m.countdowns[sessionID]
	m.Reset(sessionID, game.RoundTimerConfig{Seconds: 30})

	// An expiry for the replaced countdown arriving late must leave the
	// replacement alone.
	m.stopIfCurrent(sessionID, first)
	remaining := m.Remaining(sessionID)
	require.Greater(t, remaining, 25)

	second := m.countdowns[sessionID]
	m.stopIfCurrent(sessionID, second)
	assert.Equal(t, 0, m.Remaining(sessionID))
}

func TestRemainingUnknownSession(t *testing.T) {
	m := NewManager()
	assert.Equal(t, 0, m.Remaining(uuid.New()))
	m.Cancel(uuid.New()) // must not panic
}
