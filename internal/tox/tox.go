// Package tox reads action files exported by the vendor's desktop servo
// controller software.
//
// A .tox file is loosely XML: each <Table1> element is one frame, holding
// servo commands of the form "#<channel>SV...P<pwm>" and a hold time
// "T<ms>". Only those fragments are read; everything else is ignored.
package tox

import (
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/roach88/armseq/internal/choreo"
)

var (
	tablePattern    = regexp.MustCompile(`(?s)<Table1>(.*?)</Table1>`)
	servoPattern    = regexp.MustCompile(`#([1-6])SV.*?P(\d+)`)
	durationPattern = regexp.MustCompile(`T(\d+)`)
)

// Parse returns one frame per <Table1> block, in document order, with
// sequence positions 0..n-1. Missing servo channels default to
// choreo.DefaultPWM, a missing hold time to choreo.DefaultDuration, and
// every value is clamped into the controller limits.
//
// A document with no <Table1> blocks yields an empty slice.
func Parse(content string) ([]choreo.Frame, error) {
	tables := tablePattern.FindAllStringSubmatch(content, -1)
	frames := make([]choreo.Frame, 0, len(tables))

	for i, table := range tables {
		body := table[1]

		duration := choreo.DefaultDuration
		if m := durationPattern.FindStringSubmatch(body); m != nil {
			if d, err := strconv.Atoi(m[1]); err == nil {
				duration = d
			}
		}

		servos := make(map[int]int, choreo.ServoCount)
		for _, m := range servoPattern.FindAllStringSubmatch(body, -1) {
			ch, _ := strconv.Atoi(m[1]) // [1-6]
			pwm, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("table %d servo %d: invalid PWM %q: %w", i+1, ch, m[2], err)
			}
			servos[ch] = pwm
		}

		frames = append(frames, choreo.NewFrame(i, duration, servos, nil))
	}
	return frames, nil
}

// Read parses a .tox document from r.
func Read(r io.Reader) ([]choreo.Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tox: %w", err)
	}
	return Parse(string(data))
}
