package server

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"ArtistStudio/config"
	"ArtistStudio/core/session"
	"ArtistStudio/logger"
	"ArtistStudio/metrics"

	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

// AuthMiddleware resolves the bearer token into a session on the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return h.authenticate(next, false)
}

// wsAuthMiddleware also accepts the token as ?token= for websocket handshakes.
func (h *APIHandler) wsAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return h.authenticate(next, true)
}

func (h *APIHandler) authenticate(next http.HandlerFunc, allowQuery bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok && allowQuery {
			raw = r.URL.Query().Get("token")
			ok = raw != ""
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "authorization header is required")
			return
		}

		claims, err := h.tokens.ParseToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid token")
			return
		}

		ctx := r.Context()
		if h.sessions != nil {
			revoked, err := h.sessions.IsRevoked(ctx, claims.ID)
			if err != nil {
				// Redis 不可用时拒绝请求，不能确认 token 未被注销
				logger.Error("[Auth] 检查 token 注销状态失败", logger.ErrorField(err))
				writeError(w, http.StatusServiceUnavailable, "session_unavailable", "session store unavailable")
				return
			}
			if revoked {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "token has been revoked")
				return
			}
		}

		sess := &session.Session{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
			TokenID:  claims.ID,
		}
		if claims.ExpiresAt != nil {
			sess.ExpiresAt = claims.ExpiresAt.Time
		}
		if h.sessions != nil {
			artistID, err := h.sessions.GetSelectedArtist(ctx, claims.UserID)
			if err != nil {
				logger.Warn("[Auth] 读取已选艺人失败", logger.Int64("userId", claims.UserID), logger.ErrorField(err))
			}
			sess.SelectedArtistID = artistID
		}

		next.ServeHTTP(w, r.WithContext(session.NewContext(ctx, sess)))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// RequireRoute admits the request only when the session role can see routeID.
func (h *APIHandler) RequireRoute(routeID string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if !sess.Valid(h.now()) {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "no active session")
			return
		}
		if !h.nav.Visible(sess.Role, routeID) {
			logger.Warn("[Auth] 路由访问被拒绝",
				logger.Int64("userId", sess.UserID),
				logger.String("role", sess.Role.String()),
				logger.String("route", routeID))
			writeError(w, http.StatusForbidden, "forbidden", "route not available for this role")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// rateLimitKey limits per user, falling back to the client IP.
func rateLimitKey(r *http.Request) (string, error) {
	if sess := session.FromContext(r.Context()); sess != nil && sess.UserID > 0 {
		return "user:" + strconv.FormatInt(sess.UserID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metrics.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("[HTTP] 请求完成",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.Status),
			logger.Duration("elapsed", time.Since(start)))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.Error("[HTTP] 处理请求时发生 panic",
					logger.Any("panic", v),
					logger.String("path", r.URL.Path),
					logger.String("stack", string(debug.Stack())))
				writeError(w, http.StatusInternalServerError, "internal", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func secureHeaders(cfg *config.Config) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !cfg.IsProduction(),
	})
	return sm.Handler
}

// 添加 CORS 中间件
func corsMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	origin := "*"
	if cfg != nil && cfg.AllowedOrigin != "" {
		origin = cfg.AllowedOrigin
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
