package server

import (
	"net/http"

	"ArtistStudio/core/session"
	"ArtistStudio/logger"
	"ArtistStudio/model"

	"github.com/gorilla/mux"
)

// canManage reports whether sess may act for artist: its owner, an admin, or
// the label the artist is signed to.
func canManage(sess *session.Session, artist *model.Artist) bool {
	switch {
	case artist.OwnerID == sess.UserID:
		return true
	case sess.Role == model.RoleAdmin:
		return true
	case sess.Role == model.RoleLabel:
		return artist.LabelID != 0 && artist.LabelID == sess.UserID
	}
	return false
}

// accessibleArtist loads artistID and writes the error response when the caller may not use it.
func (h *APIHandler) accessibleArtist(w http.ResponseWriter, r *http.Request, sess *session.Session, artistID string) (*model.Artist, bool) {
	artist, err := h.catalogue.GetArtist(r.Context(), artistID)
	if err != nil {
		writeBackendError(w, err)
		return nil, false
	}
	if !canManage(sess, artist) {
		logger.Warn("[Artist] 无权访问艺人",
			logger.Int64("userId", sess.UserID),
			logger.String("artistId", artistID))
		writeError(w, http.StatusForbidden, "forbidden", "artist not accessible")
		return nil, false
	}
	return artist, true
}

// ListArtistsHandler lists the caller's artists.
func (h *APIHandler) ListArtistsHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	artists, err := h.catalogue.ListArtists(r.Context(), sess.UserID)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if artists == nil {
		artists = []model.Artist{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"artists":  artists,
		"selected": sess.SelectedArtistID,
	})
}

// GetArtistHandler returns one artist profile.
func (h *APIHandler) GetArtistHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	artist, ok := h.accessibleArtist(w, r, sess, mux.Vars(r)["id"])
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

// CreateArtistHandler creates an artist owned by the caller.
func (h *APIHandler) CreateArtistHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	var in model.ArtistInput
	if !h.decodeJSON(w, r, &in) || !h.validateStruct(w, &in) {
		return
	}
	artist, err := h.catalogue.CreateArtist(r.Context(), sess.UserID, in)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	logger.Info("[Artist] 创建艺人成功",
		logger.Int64("userId", sess.UserID),
		logger.String("artistId", artist.ID))
	writeJSON(w, http.StatusCreated, artist)
}

// UpdateArtistHandler updates a profile the caller owns, or any profile for admin and label roles.
func (h *APIHandler) UpdateArtistHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	var in model.ArtistInput
	if !h.decodeJSON(w, r, &in) || !h.validateStruct(w, &in) {
		return
	}
	artist, ok := h.accessibleArtist(w, r, sess, mux.Vars(r)["id"])
	if !ok {
		return
	}
	updated, err := h.catalogue.UpdateArtist(r.Context(), sess.UserID, artist.ID, in)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
