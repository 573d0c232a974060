package testutil

import "github.com/roach88/armseq/internal/choreo"

// Frame builds a frame at seq with the given duration and servo targets.
// Servos not supplied are left at 0.
func Frame(seq, duration int, servos ...int) choreo.Frame {
	f := choreo.Frame{Sequence: seq, Duration: duration}
	copy(f.Servos[:], servos)
	return f
}

// Frames builds n frames with sequence positions 0..n-1, each holding
// 500ms with servo 1 stepping by 10.
func Frames(n int) []choreo.Frame {
	frames := make([]choreo.Frame, n)
	for i := range frames {
		frames[i] = Frame(i, 500, i*10)
	}
	return frames
}
