// Package annotate replays recorded annotation gestures over an image.
package annotate

import (
	"errors"
	"net/http"

	"dnastudio/canvas"
	"dnastudio/core"
	"dnastudio/handlers/api/respond"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type Request struct {
	Image      core.EncodedImage  `json:"image"`
	Operations []canvas.Operation `json:"operations"`
}

type Response struct {
	Image core.EncodedImage `json:"image"`
}

func HandleAnnotate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if !respond.DecodeJSON(w, r, &req) {
			return
		}
		if req.Image.IsZero() {
			respond.BadRequest(w, r, "image is required")
			return
		}

		out, err := canvas.Replay(req.Image.Data, req.Operations)
		switch {
		case errors.Is(err, canvas.ErrCancelled):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		case errors.Is(err, canvas.ErrDecode):
			respond.Error(w, r, err, "Failed to decode image")
			return
		case err != nil:
			logrus.WithError(err).Warn("Annotation replay rejected")
			respond.BadRequest(w, r, err.Error())
			return
		}

		render.JSON(w, r, Response{Image: core.NewPNG(out)})
	}
}
