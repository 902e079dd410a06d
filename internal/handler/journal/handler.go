package journal

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ubloom/ubloom/backend/internal/middleware"
	"github.com/ubloom/ubloom/backend/internal/model/reflection"
	journalService "github.com/ubloom/ubloom/backend/internal/service/journal"
	"github.com/ubloom/ubloom/backend/pkg/utils"
)

// Handler 日记的HTTP处理器
type Handler struct {
	svc    *journalService.Service
	logger *zap.Logger
}

// New 创建日记处理器
func New(svc *journalService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("journal")}
}

// RegisterRoutes 注册日记相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/save-journal", h.handleSave)
	r.Get("/journal", h.handleList)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	var payload struct {
		Text       string                 `json:"text"`
		Reflection *reflection.Reflection `json:"reflection"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.svc.Save(r.Context(), sess.UserID, payload.Text, payload.Reflection)
	if errors.Is(err, journalService.ErrTextRequired) {
		utils.RespondError(w, http.StatusBadRequest, "Journal text is required.")
		return
	}
	if err != nil {
		h.logger.Error("save journal failed", zap.Int64("user_id", sess.UserID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "An unexpected server error occurred.")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]int64{"id": entry.ID})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	entries, err := h.svc.List(r.Context(), sess.UserID, limit)
	if err != nil {
		h.logger.Error("list journal failed", zap.Int64("user_id", sess.UserID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "An unexpected server error occurred.")
		return
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}
