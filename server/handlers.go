package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ArtistStudio/core/backend"
	"ArtistStudio/core/dashboard"
	"ArtistStudio/core/session"
	"ArtistStudio/core/upload"
	"ArtistStudio/logger"
	"ArtistStudio/model"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps JSON request bodies; media never passes through this server.
const maxBodyBytes = 1 << 20

// UploadGate issues upload URLs and confirms uploaded media.
type UploadGate interface {
	RequestUploadURL(ctx context.Context, sess *session.Session, req upload.Request) (*upload.Ticket, error)
	ConfirmRecordDetails(ctx context.Context, sess *session.Session, details model.TrackDetails) (*model.SavedTrack, error)
}

// UploadLister lists a user's upload records.
type UploadLister interface {
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.UploadRecord, error)
}

// SessionStore keeps per-user session state and revoked tokens.
type SessionStore interface {
	SetSelectedArtist(ctx context.Context, userID int64, artistID string) error
	GetSelectedArtist(ctx context.Context, userID int64) (string, error)
	ClearSelectedArtist(ctx context.Context, userID int64) error
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Catalogue is the artist part of the remote catalogue API.
type Catalogue interface {
	ListArtists(ctx context.Context, userID int64) ([]model.Artist, error)
	GetArtist(ctx context.Context, artistID string) (*model.Artist, error)
	CreateArtist(ctx context.Context, userID int64, in model.ArtistInput) (*model.Artist, error)
	UpdateArtist(ctx context.Context, userID int64, artistID string, in model.ArtistInput) (*model.Artist, error)
}

// DashboardService assembles the metrics page.
type DashboardService interface {
	Dashboard(ctx context.Context, artistID, period string) (*model.Dashboard, error)
}

// EventStream subscribes a websocket to a user's upload events.
type EventStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID int64)
}

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Kind    string `json:"kind,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("[HTTP] 写入响应失败", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: apiError{Code: code, Message: message}})
}

// writeFailure maps a gate failure onto an HTTP status.
func writeFailure(w http.ResponseWriter, err error) {
	f := upload.AsFailure(err)
	writeJSON(w, failureStatus(f), errorBody{Error: apiError{Kind: string(f.Kind), Code: f.Code, Message: f.Message}})
}

func failureStatus(f *upload.Failure) int {
	switch f.Kind {
	case upload.KindUnauthenticated:
		return http.StatusUnauthorized
	case upload.KindInvalidInput:
		switch f.Code {
		case upload.CodeFileTooLarge:
			return http.StatusRequestEntityTooLarge
		case upload.CodeUnknownMedia:
			return http.StatusNotFound
		case upload.CodeAlreadyConfirmed:
			return http.StatusConflict
		case upload.CodeArtistMismatch:
			return http.StatusForbidden
		}
		return http.StatusBadRequest
	}
	switch f.Code {
	case upload.CodeNoResponse:
		return http.StatusGatewayTimeout
	case upload.CodeRejected, upload.CodeStorageFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a bounded JSON body into dst. Unknown fields are rejected.
func (h *APIHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "invalid_body", "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		}
		return false
	}
	return true
}

// validateStruct writes a 400 and returns false when v fails its validate tags.
func (h *APIHandler) validateStruct(w http.ResponseWriter, v interface{}) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}
	writeError(w, http.StatusBadRequest, "validation_failed", describeValidation(err))
	return false
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// writeBackendError maps catalogue client errors onto the API error body.
func writeBackendError(w http.ResponseWriter, err error) {
	var rej *backend.RejectedError
	switch {
	case errors.As(err, &rej):
		switch rej.Status {
		case http.StatusNotFound:
			writeError(w, http.StatusNotFound, "not_found", rej.Message)
		case http.StatusForbidden:
			writeError(w, http.StatusForbidden, "forbidden", rej.Message)
		case http.StatusConflict, http.StatusUnprocessableEntity:
			writeError(w, rej.Status, upload.CodeRejected, rej.Message)
		default:
			writeError(w, http.StatusBadGateway, upload.CodeRejected, rej.Message)
		}
	case errors.Is(err, backend.ErrNoResponse), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, upload.CodeNoResponse, "catalogue service did not respond")
	default:
		logger.Error("[HTTP] 目录服务调用失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func pagination(r *http.Request, defLimit, maxLimit int) (limit, offset int) {
	limit, offset = defLimit, 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// HealthHandler reports liveness and, when configured, backing service readiness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			logger.Warn("[Health] 依赖服务不可用", logger.ErrorField(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// dashboardStatus maps dashboard errors that are not backend errors.
func dashboardStatus(err error) (int, string, bool) {
	switch {
	case errors.Is(err, dashboard.ErrInvalidPeriod):
		return http.StatusBadRequest, "invalid_period", true
	case errors.Is(err, dashboard.ErrNoArtist):
		return http.StatusBadRequest, "no_artist_selected", true
	}
	return 0, "", false
}
