package server

import (
	"net/http"
	"strings"

	"ArtistStudio/core/session"
)

const defaultPeriod = "28d"

// DashboardHandler returns the metrics dashboard for ?artistId= or the selected artist.
func (h *APIHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	q := r.URL.Query()

	period := strings.TrimSpace(q.Get("period"))
	if period == "" {
		period = defaultPeriod
	}
	artistID := strings.TrimSpace(q.Get("artistId"))
	if artistID == "" {
		artistID = sess.SelectedArtistID
	} else if artistID != sess.SelectedArtistID {
		if _, ok := h.accessibleArtist(w, r, sess, artistID); !ok {
			return
		}
	}

	d, err := h.dashboard.Dashboard(r.Context(), artistID, period)
	if err != nil {
		if status, code, ok := dashboardStatus(err); ok {
			writeError(w, status, code, err.Error())
			return
		}
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
