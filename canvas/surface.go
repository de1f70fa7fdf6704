package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/gobold"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when the source image cannot be decoded.
var ErrDecode = errors.New("image decode failed")

// MaxPixels caps width times height of a source image. It is checked
// against the header before any pixel buffer is allocated.
const MaxPixels = 4096 * 4096

// Snapshot is a full copy of a surface's pixels.
type Snapshot struct {
	width  int
	height int
	pix    []uint8
}

func (s Snapshot) IsZero() bool {
	return s.pix == nil
}

// Equal reports whether both snapshots hold identical pixels.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.width == other.width && s.height == other.height && bytes.Equal(s.pix, other.pix)
}

// Surface is an editable raster with the dimensions of its source image.
type Surface struct {
	width  int
	height int
	pm     *gg.Pixmap
	dc     *gg.Context

	tool  Tool
	color string

	stroking bool
	last     Point
}

// Load decodes data (PNG, JPEG, GIF or WebP) into a new surface.
func Load(data []byte) (*Surface, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: image is %dx%d, limit is %d pixels", ErrDecode, cfg.Width, cfg.Height, MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}

	w, h := b.Dx(), b.Dy()
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)

	pm := gg.NewPixmap(w, h)
	copy(pm.Data(), rgba.Pix)

	return &Surface{
		width:  w,
		height: h,
		pm:     pm,
		dc:     gg.NewContext(w, h, gg.WithPixmap(pm)),
		tool:   ToolPencil,
		color:  DefaultColor,
	}, nil
}

func (s *Surface) Width() int  { return s.width }
func (s *Surface) Height() int { return s.height }

func (s *Surface) SetTool(t Tool) { s.tool = t }

// SetColor sets the stroke color used by every tool except the eraser.
func (s *Surface) SetColor(hex string) {
	if hex = strings.TrimSpace(hex); hex != "" {
		s.color = hex
	}
}

func (s *Surface) Color() string { return s.color }

// StrokeBegin starts a freehand path at p.
func (s *Surface) StrokeBegin(p Point) {
	s.stroking = true
	s.last = p
}

// StrokeExtend draws a segment from the previous point to p. It does nothing
// unless a stroke has begun.
func (s *Surface) StrokeExtend(p Point) error {
	if !s.stroking {
		return nil
	}
	color, width := s.color, PencilWidth
	if s.tool == ToolEraser {
		color, width = EraserColor, EraserWidth
	}

	s.dc.SetHexColor(color)
	s.dc.SetLineWidth(width)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)
	s.dc.MoveTo(s.last.X, s.last.Y)
	s.dc.LineTo(p.X, p.Y)
	s.last = p
	return s.dc.Stroke()
}

func (s *Surface) StrokeEnd() {
	s.stroking = false
}

// PreviewShape restores base and draws the outline of shape between anchor
// and current on top of it. Calling it repeatedly with the same base only
// ever shows the latest outline.
func (s *Surface) PreviewShape(base Snapshot, anchor, current Point, shape Tool) error {
	if err := s.Restore(base); err != nil {
		return err
	}

	s.dc.ClearPath()
	switch shape {
	case ToolRect:
		w, h := current.X-anchor.X, current.Y-anchor.Y
		if w == 0 && h == 0 {
			return nil
		}
		s.dc.DrawRectangle(anchor.X, anchor.Y, w, h)
	case ToolCircle:
		r := math.Hypot(current.X-anchor.X, current.Y-anchor.Y)
		if r == 0 {
			return nil
		}
		s.dc.DrawCircle(anchor.X, anchor.Y, r)
	default:
		return fmt.Errorf("tool %s has no shape preview", shape)
	}

	s.dc.SetHexColor(s.color)
	s.dc.SetLineWidth(ShapeWidth)
	s.dc.SetLineCap(gg.LineCapButt)
	s.dc.SetLineJoin(gg.LineJoinMiter)
	return s.dc.Stroke()
}

// StampText renders txt in bold with its baseline at p.
func (s *Surface) StampText(p Point, txt string) error {
	if txt == "" {
		return nil
	}
	face, err := boldFace()
	if err != nil {
		return fmt.Errorf("load text face: %w", err)
	}
	s.dc.SetHexColor(s.color)
	s.dc.SetFont(face)
	s.dc.DrawString(txt, p.X, p.Y)
	return nil
}

// Snapshot copies the current pixels.
func (s *Surface) Snapshot() Snapshot {
	pix := make([]uint8, len(s.pm.Data()))
	copy(pix, s.pm.Data())
	return Snapshot{width: s.width, height: s.height, pix: pix}
}

// Restore replaces the pixels with snap.
func (s *Surface) Restore(snap Snapshot) error {
	if snap.width != s.width || snap.height != s.height || len(snap.pix) != len(s.pm.Data()) {
		return fmt.Errorf("snapshot is %dx%d, surface is %dx%d", snap.width, snap.height, s.width, s.height)
	}
	copy(s.pm.Data(), snap.pix)
	return nil
}

// Image returns a copy of the current pixels.
func (s *Surface) Image() *image.RGBA {
	return s.pm.ToImage()
}

// ExportPNG encodes the current pixels as PNG. Pixels are held
// premultiplied, so opaque pixels are exported exactly and translucent ones
// may lose up to a few levels per channel.
func (s *Surface) ExportPNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.pm.ToImage()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	fontOnce sync.Once
	boldSrc  *text.FontSource
	fontErr  error
)

func boldFace() (text.Face, error) {
	fontOnce.Do(func() {
		boldSrc, fontErr = text.NewFontSource(gobold.TTF)
	})
	if fontErr != nil {
		return nil, fontErr
	}
	return boldSrc.Face(TextSize), nil
}
