package choreo

// Assemble joins a project row with its frame rows.
// The frames are copied in the order given; callers pass them already
// ordered by Sequence.
func Assemble(p Project, frames []Frame) ProjectWithFrames {
	out := make([]Frame, len(frames))
	copy(out, frames)
	return ProjectWithFrames{Project: p, Frames: out}
}

// Decompose splits an aggregate into the rows that persist it.
//
// Every frame is re-stamped with the aggregate's project identity (when
// assigned) and loses its own identity, since the frame collection is
// always rewritten as a whole.
func Decompose(a ProjectWithFrames) (Project, []Frame) {
	projectID, ok := a.ID.Value()
	frames := make([]Frame, len(a.Frames))
	for i, f := range a.Frames {
		f.ID = Unassigned()
		if ok {
			f.ProjectID = projectID
		}
		frames[i] = f
	}
	return a.Project, frames
}
