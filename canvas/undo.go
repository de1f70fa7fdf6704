package canvas

// UndoStack holds committed snapshots. The first snapshot is the floor and
// is never removed.
type UndoStack struct {
	frames []Snapshot
	limit  int
}

// NewUndoStack starts a stack whose floor is initial. A positive limit caps
// the number of retained snapshots; once reached, the oldest snapshot above
// the floor is dropped.
func NewUndoStack(initial Snapshot, limit int) *UndoStack {
	return &UndoStack{frames: []Snapshot{initial}, limit: limit}
}

func (u *UndoStack) Push(s Snapshot) {
	u.frames = append(u.frames, s)
	if u.limit > 1 && len(u.frames) > u.limit {
		u.frames = append(u.frames[:1], u.frames[2:]...)
	}
}

// Undo discards the newest snapshot unless only the floor remains, and
// returns the snapshot that is now current.
func (u *UndoStack) Undo() Snapshot {
	if len(u.frames) > 1 {
		u.frames[len(u.frames)-1] = Snapshot{}
		u.frames = u.frames[:len(u.frames)-1]
	}
	return u.Current()
}

func (u *UndoStack) Current() Snapshot {
	return u.frames[len(u.frames)-1]
}

func (u *UndoStack) Len() int {
	return len(u.frames)
}

func (u *UndoStack) CanUndo() bool {
	return len(u.frames) > 1
}
