package api

import (
	"net/http"
	"strings"

	"fundwatch-hq/fundwatch/pkg/snapshot"
)

// handleStatic serves a raw snapshot. A trailing ".json" is accepted so
// the static files generated for the frontend resolve under either name.
func (a *API) handleStatic(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSuffix(r.PathValue("key"), ".json")
	if err := snapshot.ValidateKey(key); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid snapshot key")
		return
	}

	snap, ok := a.snapshots.Lookup(r.Context(), key)
	if !ok {
		writeError(w, http.StatusNotFound, "Snapshot not found")
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("X-Cache-Source", "static")
	h.Set("Cache-Control", "public, max-age=300")
	if !snap.GeneratedAt.IsZero() {
		h.Set("Last-Modified", snap.GeneratedAt.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.Value)
}
