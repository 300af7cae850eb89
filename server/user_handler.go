package server

import (
	"net/http"

	"ArtistStudio/core/session"
	"ArtistStudio/logger"
)

// ProfileHandler 获取当前用户资料
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	user, err := h.users.GetUserByID(r.Context(), sess.UserID)
	if err != nil {
		logger.Error("[User] 获取用户信息失败", logger.Int64("userId", sess.UserID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal", "failed to get user profile")
		return
	}
	// token 仍有效但账号已被删除
	if user == nil {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":             user,
		"selectedArtistId": sess.SelectedArtistID,
		"routes":           h.nav.Prefixes(sess.Role),
	})
}
