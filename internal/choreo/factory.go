package choreo

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Controller limits.
const (
	MinDuration     = 500
	MaxDuration     = 5000
	DefaultDuration = 1000

	MinPWM     = 500
	MaxPWM     = 2500
	DefaultPWM = 1500

	MinSoundID = 1
	MaxSoundID = 255

	MinRemoteSlot = 1
	MaxRemoteSlot = 10
)

// NewFrame builds a frame with every value clamped into the controller
// limits. servos is keyed by channel number 1..6; missing channels get
// DefaultPWM and out-of-range channel numbers are ignored.
func NewFrame(seq, duration int, servos map[int]int, soundID *int) Frame {
	f := Frame{
		Sequence: seq,
		Duration: clamp(duration, MinDuration, MaxDuration),
	}
	for ch := 1; ch <= ServoCount; ch++ {
		pwm, ok := servos[ch]
		if !ok {
			pwm = DefaultPWM
		}
		f.Servos[ch-1] = clamp(pwm, MinPWM, MaxPWM)
	}
	if soundID != nil {
		f.SoundID = IntPtr(clamp(*soundID, MinSoundID, MaxSoundID))
	}
	return f
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid")

// Validate checks the project against the controller limits.
func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project name: %w: must not be blank", ErrInvalid)
	}
	if p.RemoteSlot != nil && (*p.RemoteSlot < MinRemoteSlot || *p.RemoteSlot > MaxRemoteSlot) {
		return fmt.Errorf("remote slot %d: %w: must be %d-%d", *p.RemoteSlot, ErrInvalid, MinRemoteSlot, MaxRemoteSlot)
	}
	return nil
}

// Validate checks the frame against the controller limits.
func (f Frame) Validate() error {
	if f.Duration < MinDuration || f.Duration > MaxDuration {
		return fmt.Errorf("frame %d duration %d: %w: must be %d-%d", f.Sequence, f.Duration, ErrInvalid, MinDuration, MaxDuration)
	}
	for i, pwm := range f.Servos {
		if pwm < MinPWM || pwm > MaxPWM {
			return fmt.Errorf("frame %d servo %d PWM %d: %w: must be %d-%d", f.Sequence, i+1, pwm, ErrInvalid, MinPWM, MaxPWM)
		}
	}
	if f.SoundID != nil && (*f.SoundID < MinSoundID || *f.SoundID > MaxSoundID) {
		return fmt.Errorf("frame %d sound %d: %w: must be %d-%d", f.Sequence, *f.SoundID, ErrInvalid, MinSoundID, MaxSoundID)
	}
	return nil
}

// Validate checks the project and each of its frames.
func (a ProjectWithFrames) Validate() error {
	if err := a.Project.Validate(); err != nil {
		return err
	}
	for _, f := range a.Frames {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeName trims surrounding whitespace and applies Unicode NFC so
// that visually identical names compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
