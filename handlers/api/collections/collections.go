// Package collections serves the raw JSON collections behind
// GET/POST /api/{collection}.
package collections

import (
	"encoding/json"
	"io"
	"net/http"

	"dnastudio/core"
	"dnastudio/handlers/api/respond"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// MaxBodyBytes bounds a single collection write.
const MaxBodyBytes = respond.MaxBodyBytes

// AppendOnly reports whether single objects posted to a collection are
// appended instead of replacing it.
type AppendOnly func(collection string) bool

func HandleList(store core.CollectionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := store.Names(r.Context())
		if err != nil {
			respond.Error(w, r, err, "Failed to list collections")
			return
		}
		if names == nil {
			names = []string{}
		}
		render.JSON(w, r, names)
	}
}

func HandleGet(store core.CollectionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "collection")
		if err := core.ValidateCollectionName(name); err != nil {
			respond.Error(w, r, err, "Invalid collection")
			return
		}

		data, err := store.Load(r.Context(), name)
		if err != nil {
			respond.Error(w, r, err, "Failed to load collection")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

func HandleSave(store core.CollectionStore, appendOnly AppendOnly) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "collection")
		if err := core.ValidateCollectionName(name); err != nil {
			respond.Error(w, r, err, "Invalid collection")
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":      err,
				"collection": name,
			}).Warn("Failed to read request body")
			respond.BodyError(w, r, err)
			return
		}
		defer r.Body.Close()

		if !json.Valid(body) {
			respond.BadRequest(w, r, "Request body must be valid JSON")
			return
		}

		log := logrus.WithFields(logrus.Fields{
			"collection": name,
			"size":       len(body),
		})
		switch {
		case appendOnly != nil && appendOnly(name) && core.IsResetRequest(body):
			err = store.Save(r.Context(), name, []byte("[]"))
			log.Info("Collection reset")
		case appendOnly != nil && appendOnly(name) && !core.IsArray(body):
			err = store.Append(r.Context(), name, body)
			log.Debug("Entry appended")
		default:
			err = store.Save(r.Context(), name, body)
			log.Debug("Collection saved")
		}
		if err != nil {
			respond.Error(w, r, err, "Failed to save collection")
			return
		}

		render.JSON(w, r, map[string]bool{"success": true})
	}
}
