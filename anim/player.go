package anim

import (
	"image"
	"time"
)

// Player is the playback state of one presentation of a Sequence.
// Players are cheap; give every presenter its own.
type Player struct {
	seq      *Sequence
	index    int
	elapsed  time.Duration
	plays    uint
	maxPlays uint
}

// NewPlayer starts playback of seq at frame 0. The play limit is taken
// from seq.Loops.
func NewPlayer(seq *Sequence) *Player {
	return &Player{seq: seq, maxPlays: seq.loops}
}

// Sequence returns the sequence being played.
func (p *Player) Sequence() *Sequence {
	return p.seq
}

// Advance moves playback forward by dt.
//
// Once the play limit is reached the player is pinned to frame 0. Otherwise
// dt accumulates until it exceeds the current frame's delay, at which point
// the player steps to the next frame (wrapping to 0 and counting a play
// after the last frame) and the accumulated time resets.
func (p *Player) Advance(dt time.Duration) {
	if p.seq.Static() {
		return
	}
	if p.Done() {
		p.index = 0
		return
	}

	p.elapsed += dt
	if p.elapsed <= p.seq.frames[p.index].Delay {
		return
	}
	p.index++
	if p.index == len(p.seq.frames) {
		p.index = 0
		p.plays++
	}
	p.elapsed = 0
}

// CurrentFrame returns the composited canvas to display now.
func (p *Player) CurrentFrame() *image.NRGBA {
	return p.seq.composited[p.index]
}

// Index returns the current frame index.
func (p *Player) Index() int {
	return p.index
}

// Plays returns how many times playback has wrapped past the last frame.
func (p *Player) Plays() uint {
	return p.plays
}

// Done reports whether a finite play limit has been reached.
func (p *Player) Done() bool {
	return p.maxPlays > 0 && p.plays >= p.maxPlays
}

// Reset rewinds to frame 0 and clears the play count.
func (p *Player) Reset() {
	p.index = 0
	p.elapsed = 0
	p.plays = 0
}
