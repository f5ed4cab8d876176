package anim

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourFrames(t *testing.T, delay time.Duration, loops uint) *Sequence {
	t.Helper()
	frames := make([]Frame, 4)
	for i := range frames {
		frames[i] = frame(image.Rect(i, 0, i+1, 1), red, DisposeBackground, BlendSource)
		frames[i].Delay = delay
	}
	seq, err := Build(4, 1, nil, frames, loops)
	require.NoError(t, err)
	return seq
}

func TestPlayerStopsAfterPlayLimit(t *testing.T) {
	t.Parallel()

	seq := fourFrames(t, 10*time.Millisecond, 1)
	p := NewPlayer(seq)

	want := []int{1, 2, 3, 0}
	for _, idx := range want {
		p.Advance(11 * time.Millisecond)
		assert.Equal(t, idx, p.Index())
	}
	assert.Equal(t, uint(1), p.Plays())
	assert.True(t, p.Done())

	for range 20 {
		p.Advance(11 * time.Millisecond)
		assert.Equal(t, 0, p.Index())
		assert.Same(t, seq.Composited(0), p.CurrentFrame())
		assert.Equal(t, uint(1), p.Plays())
	}
}

func TestPlayerWaitsForDelay(t *testing.T) {
	t.Parallel()

	p := NewPlayer(fourFrames(t, 100*time.Millisecond, 0))

	p.Advance(50 * time.Millisecond)
	p.Advance(50 * time.Millisecond)
	assert.Equal(t, 0, p.Index(), "elapsed must exceed the delay, not merely reach it")

	p.Advance(time.Millisecond)
	assert.Equal(t, 1, p.Index())

	p.Advance(500 * time.Millisecond)
	assert.Equal(t, 2, p.Index(), "at most one step per tick, leftover time is dropped")
}

func TestPlayerLoopsForever(t *testing.T) {
	t.Parallel()

	p := NewPlayer(fourFrames(t, 0, 0))
	for range 40 {
		p.Advance(time.Millisecond)
	}
	assert.Equal(t, uint(10), p.Plays())
	assert.False(t, p.Done())
	assert.Equal(t, 0, p.Index())
}

func TestPlayersAreIndependent(t *testing.T) {
	t.Parallel()

	seq := fourFrames(t, 0, 0)
	a, b := NewPlayer(seq), NewPlayer(seq)
	a.Advance(time.Millisecond)
	a.Advance(time.Millisecond)

	assert.Equal(t, 2, a.Index())
	assert.Equal(t, 0, b.Index())
	assert.Same(t, seq.Composited(2), a.CurrentFrame())
	assert.Same(t, seq.Composited(0), b.CurrentFrame())

	a.Reset()
	assert.Equal(t, 0, a.Index())
	assert.Zero(t, a.Plays())
}

func TestStaticPlayerIgnoresAdvance(t *testing.T) {
	t.Parallel()

	seq, err := Build(1, 1, solid(1, 1, green), nil, 0)
	require.NoError(t, err)
	p := NewPlayer(seq)
	p.Advance(time.Hour)
	assert.Equal(t, 0, p.Index())
	assert.Equal(t, green, at(p.CurrentFrame(), 0, 0))
	assert.Same(t, seq, p.Sequence())
}
