package reflection

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	reflectionService "github.com/ubloom/ubloom/backend/internal/service/reflection"
	"github.com/ubloom/ubloom/backend/pkg/utils"
)

// FallbackHeader is set on responses that carry the fallback reflection.
const FallbackHeader = "X-Reflection-Fallback"

// Reflector produces a reflection for a journal entry.
type Reflector interface {
	Reflect(ctx context.Context, journalText string) (*reflectionService.Result, error)
}

// Handler 反思接口的HTTP处理器
type Handler struct {
	svc      Reflector
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New 创建反思处理器
func New(svc Reflector, logger *zap.Logger, allowedOrigins []string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:    svc,
		logger: logger.Named("reflect"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterRoutes 注册反思相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/reflect", h.handleReflect)
	r.Get("/reflect/ws", h.handleWebSocket)
}

type reflectRequest struct {
	JournalText string `json:"journal_text"`
}

// handleReflect 分析日记并返回反思
func (h *Handler) handleReflect(w http.ResponseWriter, r *http.Request) {
	var payload reflectRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Reflect(r.Context(), payload.JournalText)
	if err != nil {
		utils.RespondError(w, reflectionService.HTTPStatus(err), reflectionService.PublicMessage(err))
		return
	}

	if result.Fallback {
		w.Header().Set(FallbackHeader, "true")
	}
	utils.RespondJSON(w, http.StatusOK, result.Reflection)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
