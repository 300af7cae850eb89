package server

import (
	"net/http"

	"ArtistStudio/core/session"
	"ArtistStudio/core/upload"
	"ArtistStudio/logger"
	"ArtistStudio/model"
)

// UploadURLHandler issues a pre-signed PUT URL for a declared file.
func (h *APIHandler) UploadURLHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	var req upload.Request
	if !h.decodeJSON(w, r, &req) {
		return
	}
	ticket, err := h.gate.RequestUploadURL(r.Context(), sess, req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

// ListUploadsHandler lists the caller's upload records, newest first.
func (h *APIHandler) ListUploadsHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	limit, offset := pagination(r, 20, 100)
	records, err := h.uploads.ListByUser(r.Context(), sess.UserID, limit, offset)
	if err != nil {
		logger.Error("[Upload] 查询上传记录失败", logger.Int64("userId", sess.UserID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal", "failed to list uploads")
		return
	}
	if records == nil {
		records = []*model.UploadRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uploads": records,
		"limit":   limit,
		"offset":  offset,
	})
}

// TrackDetailsHandler saves track details for an uploaded file and activates its record.
func (h *APIHandler) TrackDetailsHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	var details model.TrackDetails
	if !h.decodeJSON(w, r, &details) {
		return
	}
	saved, err := h.gate.ConfirmRecordDetails(r.Context(), sess, details)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// UploadEventsHandler streams the caller's upload events over a websocket.
func (h *APIHandler) UploadEventsHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if h.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "event stream disabled")
		return
	}
	h.hub.ServeWS(w, r, sess.UserID)
}
