// Package respond maps domain errors to HTTP responses.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"dnastudio/canvas"
	"dnastudio/core"
	"dnastudio/genai"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrInvalidCollection):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStaleResult):
		return http.StatusConflict
	case errors.Is(err, canvas.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, genai.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrRefinementFailed), errors.Is(err, genai.ErrParse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Error writes {"error": ...} for err. Client errors carry err's message;
// server errors carry fallback and are logged.
func Error(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"error": err,
			"path":  r.URL.Path,
		}).Error(fallback)
		msg = fallback
	} else {
		logrus.WithFields(logrus.Fields{
			"error":  err,
			"status": status,
			"path":   r.URL.Path,
		}).Warn(fallback)
	}
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

// BadRequest writes a 400 with msg.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, map[string]string{"error": msg})
}

// MaxBodyBytes bounds request bodies. Images travel inline as data URLs, so
// the limit is generous.
const MaxBodyBytes = 64 << 20

// DecodeJSON reads at most MaxBodyBytes of r's body into v. On failure it
// writes the response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(v); err != nil {
		BodyError(w, r, err)
		return false
	}
	return true
}

// BodyError writes a 413 when err comes from an oversized body and a 400
// otherwise.
func BodyError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		render.Status(r, http.StatusRequestEntityTooLarge)
		render.JSON(w, r, map[string]string{"error": "Request body too large"})
		return
	}
	BadRequest(w, r, "Invalid request body")
}
