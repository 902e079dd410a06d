package goal

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ubloom/ubloom/backend/internal/middleware"
	"github.com/ubloom/ubloom/backend/internal/model/goal"
	goalService "github.com/ubloom/ubloom/backend/internal/service/goal"
	"github.com/ubloom/ubloom/backend/pkg/utils"
)

// Handler 目标的HTTP处理器
type Handler struct {
	svc    *goalService.Service
	logger *zap.Logger
}

// New 创建目标处理器
func New(svc *goalService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("goal")}
}

// RegisterRoutes 注册目标相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/goals", h.handleList)
	r.Post("/goals", h.handleCreate)
	r.Patch("/goals/{goalID}", h.handleUpdate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	goals, err := h.svc.List(r.Context(), sess.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, goals)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.svc.Create(r.Context(), sess.UserID, payload.Text)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, g)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	goalID, err := strconv.ParseInt(chi.URLParam(r, "goalID"), 10, 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	var payload struct {
		Status goal.Status `json:"status"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.svc.SetStatus(r.Context(), sess.UserID, goalID, payload.Status)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, g)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, goalService.ErrTextRequired), errors.Is(err, goalService.ErrInvalidStatus):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, goal.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "goal not found")
	default:
		h.logger.Error("goal request failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "An unexpected server error occurred.")
	}
}
