package usage

import (
	"context"
	"net/http"

	"dnastudio/core"
	"dnastudio/handlers/api/respond"

	"github.com/go-chi/render"
)

type Store interface {
	UsageLogs(ctx context.Context) ([]core.UsageLog, error)
	ResetUsage(ctx context.Context) error
}

type Report struct {
	Summary core.UsageSummary `json:"summary"`
	Logs    []core.UsageLog   `json:"logs"`
}

// HandleReport returns the usage totals and the log, newest first.
func HandleReport(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logs, err := store.UsageLogs(r.Context())
		if err != nil {
			respond.Error(w, r, err, "Failed to load usage logs")
			return
		}
		render.JSON(w, r, Report{Summary: core.Summarize(logs), Logs: logs})
	}
}

func HandleReset(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.ResetUsage(r.Context()); err != nil {
			respond.Error(w, r, err, "Failed to reset usage logs")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
