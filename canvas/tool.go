package canvas

import "fmt"

// Tool is the active drawing tool of a session.
type Tool int

const (
	ToolPencil Tool = iota
	ToolRect
	ToolCircle
	ToolText
	ToolEraser
)

var toolNames = map[Tool]string{
	ToolPencil: "pencil",
	ToolRect:   "rect",
	ToolCircle: "circle",
	ToolText:   "text",
	ToolEraser: "eraser",
}

func (t Tool) String() string {
	if name, ok := toolNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// IsShape reports whether t previews an outline between anchor and pointer.
func (t Tool) IsShape() bool {
	return t == ToolRect || t == ToolCircle
}

func ParseTool(name string) (Tool, error) {
	for t, n := range toolNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", name)
}

// Stroke geometry and colors.
const (
	PencilWidth  = 4.0
	EraserWidth  = 20.0
	ShapeWidth   = 4.0
	TextSize     = 32.0
	EraserColor  = "#ffffff"
	DefaultColor = "#6366f1"
)

// Palette is the set of colors offered to annotators.
var Palette = []string{"#6366f1", "#10b981", "#ef4444", "#f59e0b", "#ffffff"}

// Point is a position in surface pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
