package canvas

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateGesture
	StateApplied
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGesture:
		return "gesture"
	case StateApplied:
		return "applied"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrSessionClosed = errors.New("annotation session is closed")
	ErrGestureActive = errors.New("a gesture is in progress")
)

// TextPrompt asks the user for the text of a stamp. It returns false when
// the user dismissed the prompt.
type TextPrompt func() (string, bool)

type Option func(*Session)

func WithTextPrompt(p TextPrompt) Option {
	return func(s *Session) { s.prompt = p }
}

// WithUndoLimit caps the number of retained undo snapshots.
func WithUndoLimit(n int) Option {
	return func(s *Session) { s.undoLimit = n }
}

// DefaultUndoLimit bounds the memory held by a session's undo history.
const DefaultUndoLimit = 64

// Session drives pointer gestures over a Surface. Every gesture that ends
// (pointer up or pointer leaving the canvas) commits exactly one snapshot.
// Apply hands the PNG encoding to onApply; Cancel discards all work.
type Session struct {
	surface *Surface
	undo    *UndoStack
	state   State
	tool    Tool
	anchor  Point

	prompt    TextPrompt
	undoLimit int
	onApply   func([]byte)
	onCancel  func()
}

// NewSession decodes source and opens an idle session over it.
func NewSession(source []byte, onApply func([]byte), onCancel func(), opts ...Option) (*Session, error) {
	surface, err := Load(source)
	if err != nil {
		return nil, err
	}

	s := &Session{
		surface:   surface,
		tool:      ToolPencil,
		undoLimit: DefaultUndoLimit,
		onApply:   onApply,
		onCancel:  onCancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.undo = NewUndoStack(surface.Snapshot(), s.undoLimit)
	return s, nil
}

func (s *Session) State() State        { return s.state }
func (s *Session) Tool() Tool          { return s.tool }
func (s *Session) Color() string       { return s.surface.Color() }
func (s *Session) UndoDepth() int      { return s.undo.Len() }
func (s *Session) Surface() *Surface   { return s.surface }
func (s *Session) Committed() Snapshot { return s.undo.Current() }

func (s *Session) closed() bool {
	return s.state == StateApplied || s.state == StateCancelled
}

// idle returns an error unless the session is between gestures.
func (s *Session) idle() error {
	if s.closed() {
		return ErrSessionClosed
	}
	if s.state == StateGesture {
		return ErrGestureActive
	}
	return nil
}

func (s *Session) SelectTool(t Tool) error {
	if err := s.idle(); err != nil {
		return err
	}
	s.tool = t
	s.surface.SetTool(t)
	return nil
}

func (s *Session) SelectColor(hex string) error {
	if err := s.idle(); err != nil {
		return err
	}
	s.surface.SetColor(hex)
	return nil
}

// PointerDown starts a gesture at p. With the text tool the prompt is asked
// synchronously; an empty or dismissed answer leaves the session idle and
// commits nothing.
func (s *Session) PointerDown(p Point) error {
	if s.closed() {
		return ErrSessionClosed
	}
	if s.state == StateGesture {
		return nil
	}

	switch {
	case s.tool == ToolText:
		return s.stamp(p)
	case s.tool.IsShape():
		s.anchor = p
	default:
		s.surface.StrokeBegin(p)
	}
	s.state = StateGesture
	return nil
}

func (s *Session) stamp(p Point) error {
	if s.prompt == nil {
		return nil
	}
	txt, ok := s.prompt()
	if !ok || txt == "" {
		return nil
	}
	if err := s.surface.StampText(p, txt); err != nil {
		return err
	}
	s.undo.Push(s.surface.Snapshot())
	return nil
}

// PointerMove extends the active gesture. Moves while idle are ignored.
func (s *Session) PointerMove(p Point) error {
	if s.closed() {
		return ErrSessionClosed
	}
	if s.state != StateGesture {
		return nil
	}
	if s.tool.IsShape() {
		return s.surface.PreviewShape(s.undo.Current(), s.anchor, p, s.tool)
	}
	return s.surface.StrokeExtend(p)
}

// PointerUp ends the active gesture and commits it.
func (s *Session) PointerUp() error {
	if s.closed() {
		return ErrSessionClosed
	}
	if s.state != StateGesture {
		return nil
	}
	s.surface.StrokeEnd()
	s.undo.Push(s.surface.Snapshot())
	s.state = StateIdle
	return nil
}

// PointerLeave behaves exactly like PointerUp.
func (s *Session) PointerLeave() error {
	return s.PointerUp()
}

// Undo restores the previous committed snapshot. At the floor it restores
// the initial image and keeps it.
func (s *Session) Undo() error {
	if err := s.idle(); err != nil {
		return err
	}
	return s.surface.Restore(s.undo.Undo())
}

// Apply exports the surface and passes it to onApply. The session is closed
// afterwards.
func (s *Session) Apply() error {
	if err := s.idle(); err != nil {
		return err
	}
	data, err := s.surface.ExportPNG()
	if err != nil {
		return err
	}
	s.state = StateApplied
	if s.onApply != nil {
		s.onApply(data)
	}
	return nil
}

// Cancel closes the session without producing an image.
func (s *Session) Cancel() error {
	if s.closed() {
		return ErrSessionClosed
	}
	s.surface.StrokeEnd()
	s.state = StateCancelled
	if s.onCancel != nil {
		s.onCancel()
	}
	return nil
}
