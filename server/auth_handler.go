package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"ArtistStudio/core/auth"
	"ArtistStudio/core/session"
	"ArtistStudio/logger"
	"ArtistStudio/model"
	"ArtistStudio/repository"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=254"` // 可以是用户名或邮箱
	Password string `json:"password" validate:"required,max=72"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// SelectArtistRequest chooses the artist the session works on. An empty ID clears it.
type SelectArtistRequest struct {
	ArtistID string `json:"artistId"`
}

// LoginHandler handles user login requests
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeJSON(w, r, &req) || !h.validateStruct(w, &req) {
		return
	}

	// 查询用户 - 支持用户名或邮箱登录
	var user *model.User
	var err error
	if strings.Contains(req.Username, "@") {
		user, err = h.users.GetUserByEmail(r.Context(), req.Username)
	} else {
		user, err = h.users.GetUserByUsername(r.Context(), req.Username)
	}
	if err != nil {
		logger.Error("[Login] 查询用户失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	if user == nil {
		logger.Warn("[Login] 用户不存在", logger.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username/email or password")
		return
	}

	// 验证密码
	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("[Login] 密码验证失败", logger.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username/email or password")
		return
	}

	h.issueToken(w, http.StatusOK, user)
	logger.Info("[Login] 登录成功", logger.String("username", user.Username))
}

// RegisterHandler handles user registration requests
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decodeJSON(w, r, &req) || !h.validateStruct(w, &req) {
		return
	}

	role := model.RoleUser
	if req.Role != "" {
		parsed, ok := model.ParseRole(req.Role)
		if !ok || !parsed.SelfAssignable() {
			writeError(w, http.StatusBadRequest, "invalid_role", "role cannot be chosen at registration")
			return
		}
		role = parsed
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("[Register] 密码加密失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal", "failed to process password")
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hashedPassword,
		Role:         role,
	}
	userID, err := h.users.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			logger.Warn("[Register] 用户名或邮箱已存在",
				logger.String("username", req.Username),
				logger.String("email", req.Email))
			writeError(w, http.StatusConflict, "duplicate_user", "username or email already exists")
			return
		}
		logger.Error("[Register] 创建用户失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal", "failed to create user")
		return
	}
	user.ID = userID
	now := h.now()
	user.CreatedAt, user.UpdatedAt = now, now

	h.issueToken(w, http.StatusCreated, user)
	logger.Info("[Register] 注册成功", logger.String("username", user.Username), logger.String("role", role.String()))
}

func (h *APIHandler) issueToken(w http.ResponseWriter, status int, user *model.User) {
	token, claims, err := h.tokens.GenerateToken(user)
	if err != nil {
		logger.Error("[Auth] 生成Token失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	writeJSON(w, status, AuthResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user})
}

// LogoutHandler revokes the current token until it would have expired anyway.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if h.sessions != nil && sess.TokenID != "" {
		ttl := sess.ExpiresAt.Sub(h.now())
		if err := h.sessions.RevokeToken(r.Context(), sess.TokenID, ttl); err != nil {
			logger.Error("[Logout] 注销 token 失败", logger.ErrorField(err))
			writeError(w, http.StatusServiceUnavailable, "session_unavailable", "session store unavailable")
			return
		}
	}
	logger.Info("[Logout] 用户已登出", logger.String("username", sess.Username))
	w.WriteHeader(http.StatusNoContent)
}

// SessionHandler returns the current session.
func (h *APIHandler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, session.FromContext(r.Context()))
}

// SelectArtistHandler stores the artist the session works on after the
// catalogue confirms the caller may act for it.
func (h *APIHandler) SelectArtistHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	var req SelectArtistRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	req.ArtistID = strings.TrimSpace(req.ArtistID)

	if req.ArtistID == "" {
		if err := h.sessions.ClearSelectedArtist(r.Context(), sess.UserID); err != nil {
			logger.Error("[Session] 清除已选艺人失败", logger.ErrorField(err))
			writeError(w, http.StatusServiceUnavailable, "session_unavailable", "session store unavailable")
			return
		}
		sess.SelectedArtistID = ""
		writeJSON(w, http.StatusOK, sess)
		return
	}

	artist, ok := h.accessibleArtist(w, r, sess, req.ArtistID)
	if !ok {
		return
	}
	if err := h.sessions.SetSelectedArtist(r.Context(), sess.UserID, artist.ID); err != nil {
		logger.Error("[Session] 保存已选艺人失败", logger.ErrorField(err))
		writeError(w, http.StatusServiceUnavailable, "session_unavailable", "session store unavailable")
		return
	}
	sess.SelectedArtistID = artist.ID
	writeJSON(w, http.StatusOK, sess)
}

// NavHandler returns the navigation tree visible to the session role.
func (h *APIHandler) NavHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"role":   sess.Role,
		"routes": h.nav.Resolve(sess.Role),
	})
}
