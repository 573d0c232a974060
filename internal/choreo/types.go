package choreo

// ServoCount is the number of actuator channels on the arm.
const ServoCount = 6

// Project is a named motion sequence.
type Project struct {
	ID         ID
	Name       string
	RemoteSlot *int // controller-side storage slot, if the project was uploaded
	CreatedAt  int64
	ModifiedAt int64
}

// Frame is one step of a project.
type Frame struct {
	ID        ID
	ProjectID int64
	Sequence  int
	Duration  int // milliseconds
	Servos    [ServoCount]int
	SoundID   *int
}

// ProjectWithFrames is a project together with its frames, ordered by
// ascending Sequence.
type ProjectWithFrames struct {
	Project
	Frames []Frame
}

// TotalDuration returns the summed hold duration of all frames.
func (a ProjectWithFrames) TotalDuration() int {
	total := 0
	for _, f := range a.Frames {
		total += f.Duration
	}
	return total
}

// maxDisplayName is the rune limit for names shown on the controller display.
const maxDisplayName = 50

// TruncatedName returns the project name cut to the display limit.
func (p Project) TruncatedName() string {
	r := []rune(p.Name)
	if len(r) <= maxDisplayName {
		return p.Name
	}
	return string(r[:maxDisplayName])
}

// IntPtr returns a pointer to v. Convenience for optional fields.
func IntPtr(v int) *int {
	return &v
}
