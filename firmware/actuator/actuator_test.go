package actuator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/hackablelamp/firmware/timer"
)

type fakeServo struct {
	angles   []int
	releases int
	err      error
}

func (s *fakeServo) SetAngle(degrees int) error {
	s.angles = append(s.angles, degrees)
	return s.err
}

func (s *fakeServo) Release() error {
	s.releases++
	return nil
}

func newTestController(initial int) (*Controller, *fakeServo) {
	cfg := DefaultConfig()
	cfg.InitialPosition = initial
	servo := &fakeServo{}
	return New(cfg, servo), servo
}

// runUntilIdle steps until the controller settles and returns the number of moving steps
func runUntilIdle(t *testing.T, c *Controller) int {
	t.Helper()
	moves := 0
	for range 500 {
		before := c.Current()
		require.NoError(t, c.Update())
		if c.Current() != before {
			moves++
			diff := c.Current() - before
			require.True(t, diff == 1 || diff == -1, "moved by %d", diff)
		}
		if c.Phase() == PhaseIdle && c.Current() == c.Desired() {
			return moves
		}
	}
	t.Fatal("controller never settled")
	return moves
}

func TestSetPositionConverges(t *testing.T) {
	for _, initial := range []int{0, 50, 100} {
		for p := 0; p <= 100; p++ {
			c, _ := newTestController(initial)
			c.SetPosition(p)

			moves := runUntilIdle(t, c)
			assert.Equal(t, p, c.Current())
			assert.LessOrEqual(t, moves, abs(p-initial))

			for range 5 {
				require.NoError(t, c.Update())
				assert.Equal(t, PhaseIdle, c.Phase())
				assert.Equal(t, p, c.Current())
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestSetPositionClamps(t *testing.T) {
	tests := []struct {
		in       int
		expected int
	}{
		{-1, 0},
		{-1000, 0},
		{101, 100},
		{150, 100},
		{255, 100},
		{42, 42},
	}

	for _, tt := range tests {
		c, _ := newTestController(50)
		c.SetPosition(tt.in)
		assert.Equal(t, tt.expected, c.Desired(), "SetPosition(%d)", tt.in)
	}
}

func TestLastWriteWins(t *testing.T) {
	c, servo := newTestController(50)
	c.SetPosition(30)
	c.SetPosition(70)

	runUntilIdle(t, c)
	assert.Equal(t, 70, c.Current())
	for _, a := range servo.angles {
		assert.GreaterOrEqual(t, a, c.Angle(51), "never moved toward 30")
	}
}

func TestStateMachine(t *testing.T) {
	c, servo := newTestController(10)

	require.NoError(t, c.Update())
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Equal(t, 1, servo.releases)

	c.SetPosition(12)
	require.NoError(t, c.Update())
	assert.Equal(t, PhaseMoving, c.Phase())
	assert.Equal(t, 10, c.Current(), "transition tick does not move")
	assert.Empty(t, servo.angles)

	require.NoError(t, c.Update())
	assert.Equal(t, 11, c.Current())
	assert.Equal(t, PhaseMoving, c.Phase())

	require.NoError(t, c.Update())
	assert.Equal(t, 12, c.Current())
	assert.Equal(t, PhaseIdle, c.Phase(), "idle as soon as target is reached")
	assert.Equal(t, []int{c.Angle(11), c.Angle(12)}, servo.angles)

	require.NoError(t, c.Update())
	require.NoError(t, c.Update())
	assert.Equal(t, 3, servo.releases)
}

func TestAngleMapping(t *testing.T) {
	c, _ := newTestController(0)
	assert.Equal(t, 0, c.Angle(0))
	assert.Equal(t, 90, c.Angle(50))
	assert.Equal(t, 180, c.Angle(100))

	cfg := DefaultConfig()
	cfg.MinAngle = 60
	cfg.MaxAngle = 120
	narrow := New(cfg, &fakeServo{})
	assert.Equal(t, 60, narrow.Angle(0))
	assert.Equal(t, 90, narrow.Angle(50))
	assert.Equal(t, 120, narrow.Angle(100))
}

func TestSinkErrorStillAdvances(t *testing.T) {
	c, servo := newTestController(0)
	servo.err = errors.New("pwm fault")
	c.SetPosition(1)

	require.NoError(t, c.Update())
	assert.ErrorIs(t, c.Update(), servo.err)
	assert.Equal(t, 1, c.Current())
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestStepIsGatedByRefreshPeriod(t *testing.T) {
	clock := timer.NewManualClock(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	servo := &fakeServo{}
	c := New(DefaultConfig(), servo, WithClock(clock))

	ran, err := c.Step()
	require.NoError(t, err)
	assert.False(t, ran)

	clock.Advance(19 * time.Millisecond)
	ran, _ = c.Step()
	assert.False(t, ran)

	clock.Advance(time.Millisecond)
	ran, _ = c.Step()
	assert.True(t, ran)
	assert.Equal(t, 1, servo.releases)

	ran, _ = c.Step()
	assert.False(t, ran)
}
