package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ubloom/ubloom/backend/internal/middleware"
	"github.com/ubloom/ubloom/backend/internal/model/account"
	accountService "github.com/ubloom/ubloom/backend/internal/service/account"
	"github.com/ubloom/ubloom/backend/pkg/utils"
)

// Handler 账户相关的HTTP处理器
type Handler struct {
	svc          *accountService.Service
	logger       *zap.Logger
	secureCookie bool
}

// New 创建账户处理器
func New(svc *accountService.Service, logger *zap.Logger, secureCookie bool) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("account"), secureCookie: secureCookie}
}

// RegisterPublicRoutes 注册无需登录的路由
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

// RegisterRoutes 注册需要登录的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/logout", h.handleLogout)
	r.Get("/user/me", h.handleMe)
	r.Post("/user/avatar", h.handleAvatar)
	r.Post("/save-progress", h.handleSaveProgress)
}

type signInResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Username  string        `json:"username"`
	Coins     int           `json:"coins"`
	Streak    int           `json:"streak"`
	User      *account.User `json:"user"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		AvatarID int    `json:"avatar_id"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	signedIn, err := h.svc.Register(r.Context(), accountService.RegisterInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		AvatarID: payload.AvatarID,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondSignedIn(w, http.StatusCreated, signedIn)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	signedIn, err := h.svc.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondSignedIn(w, http.StatusOK, signedIn)
}

func (h *Handler) respondSignedIn(w http.ResponseWriter, status int, s *accountService.SignedIn) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	utils.RespondJSON(w, status, signInResponse{
		Token:     s.Token,
		ExpiresAt: s.Session.ExpiresAt,
		Username:  s.User.Username,
		Coins:     s.User.Progress.Coins,
		Streak:    s.User.Progress.Streak,
		User:      s.User,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	if err := h.svc.Logout(r.Context(), sess.ID); err != nil {
		h.logger.Warn("logout failed", zap.Error(err))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	user, err := h.svc.Profile(r.Context(), sess.UserID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) handleAvatar(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	var payload struct {
		AvatarURL *string `json:"avatar_url"`
		AvatarID  *int    `json:"avatar_id"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.AvatarURL == nil && payload.AvatarID == nil {
		utils.RespondError(w, http.StatusBadRequest, "avatar_url or avatar_id is required")
		return
	}

	user, err := h.svc.UpdateAvatar(r.Context(), sess.UserID, payload.AvatarID, payload.AvatarURL)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	var progress account.Progress
	if err := utils.DecodeJSON(w, r, &progress); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SaveProgress(r.Context(), sess.UserID, progress); err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accountService.ErrInvalidInput):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, accountService.ErrInvalidCredentials):
		utils.RespondError(w, http.StatusUnauthorized, "Invalid email or password.")
	case errors.Is(err, account.ErrEmailTaken):
		utils.RespondError(w, http.StatusConflict, "An account with this email already exists.")
	case errors.Is(err, account.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "user not found")
	default:
		h.logger.Error("account request failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "An unexpected server error occurred.")
	}
}
