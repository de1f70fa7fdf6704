package annotate

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"dnastudio/canvas"
	"dnastudio/core"
)

func whitePNG(t *testing.T, w, h int) core.EncodedImage {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return core.NewPNG(buf.Bytes())
}

// resized claims w x h in the PNG header while keeping the original pixels.
func resized(img core.EncodedImage, w, h uint32) core.EncodedImage {
	data := append([]byte(nil), img.Data...)
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return core.NewPNG(data)
}

func post(t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(body)
	rec := httptest.NewRecorder()
	HandleAnnotate()(rec, httptest.NewRequest(http.MethodPost, "/annotate", &buf))
	return rec
}

func TestAnnotate(t *testing.T) {
	rec := post(t, Request{
		Image: whitePNG(t, 24, 24),
		Operations: []canvas.Operation{
			{Op: "color", Color: "#ef4444"},
			{Op: "down", X: 2, Y: 12},
			{Op: "move", X: 22, Y: 12},
			{Op: "up"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Image.MimeType != "image/png" {
		t.Errorf("MimeType = %q", resp.Image.MimeType)
	}
	img, err := png.Decode(bytes.NewReader(resp.Image.Data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	r, g, b, _ := img.At(12, 12).RGBA()
	if r>>8 == 0xff && g>>8 == 0xff && b>>8 == 0xff {
		t.Error("stroke was not drawn")
	}
}

func TestAnnotateErrors(t *testing.T) {
	source := whitePNG(t, 8, 8)
	tests := []struct {
		name string
		req  Request
		want int
	}{
		{"no image", Request{}, http.StatusBadRequest},
		{"undecodable", Request{Image: core.NewPNG([]byte("not an image"))}, http.StatusUnprocessableEntity},
		{"unknown tool", Request{Image: source, Operations: []canvas.Operation{{Op: "tool", Tool: "laser"}}}, http.StatusBadRequest},
		{"oversized header", Request{Image: resized(source, 40000, 40000)}, http.StatusUnprocessableEntity},
		{"cancelled", Request{Image: source, Operations: []canvas.Operation{{Op: "cancel"}}}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := post(t, tt.req); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}
