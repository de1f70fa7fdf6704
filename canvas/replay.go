package canvas

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned by Replay when the script cancels the session.
var ErrCancelled = errors.New("annotation cancelled")

// Operation is one recorded input event. Op is one of tool, color, down,
// move, up, leave, undo, apply or cancel. Text answers the prompt raised by
// a down event while the text tool is active.
type Operation struct {
	Op    string  `json:"op"`
	Tool  string  `json:"tool,omitempty"`
	Color string  `json:"color,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Text  string  `json:"text,omitempty"`
}

// Replay feeds ops through a new session over source and returns the PNG it
// applies. A gesture still open at the end is committed, and a session that
// is still idle is applied.
func Replay(source []byte, ops []Operation) ([]byte, error) {
	var (
		result []byte
		answer string
	)
	prompt := func() (string, bool) { return answer, answer != "" }

	s, err := NewSession(source, func(png []byte) { result = png }, nil, WithTextPrompt(prompt))
	if err != nil {
		return nil, err
	}

	for i, op := range ops {
		answer = op.Text
		if err := s.dispatch(op); err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, op.Op, err)
		}
	}

	if s.State() == StateGesture {
		if err := s.PointerUp(); err != nil {
			return nil, err
		}
	}
	if s.State() == StateIdle {
		if err := s.Apply(); err != nil {
			return nil, err
		}
	}
	if s.State() == StateCancelled {
		return nil, ErrCancelled
	}
	return result, nil
}

func (s *Session) dispatch(op Operation) error {
	p := Point{X: op.X, Y: op.Y}
	switch op.Op {
	case "tool":
		t, err := ParseTool(op.Tool)
		if err != nil {
			return err
		}
		return s.SelectTool(t)
	case "color":
		return s.SelectColor(op.Color)
	case "down":
		return s.PointerDown(p)
	case "move":
		return s.PointerMove(p)
	case "up":
		return s.PointerUp()
	case "leave":
		return s.PointerLeave()
	case "undo":
		return s.Undo()
	case "apply":
		return s.Apply()
	case "cancel":
		return s.Cancel()
	}
	return fmt.Errorf("unknown operation %q", op.Op)
}
