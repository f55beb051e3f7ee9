package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"reload-gateway/internal/core/usecase"
)

// DispatchState reports whether a reload is being executed right now.
type DispatchState interface {
	Busy() bool
}

type HealthHandler struct {
	dispatch DispatchState
	statsUC  *usecase.GetStatsUseCase
	Base
}

func NewHealthHandler(dispatch DispatchState, statsUC *usecase.GetStatsUseCase) *HealthHandler {
	return &HealthHandler{dispatch: dispatch, statsUC: statsUC}
}

func (h *HealthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
}

// handleHealth godoc
// @Summary      Liveness and queue summary
// @Tags         ops
// @Produce      json
// @Success      200 {object} HttpResponse
// @Router       /health [get]
func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.RespondWithSuccess(w, http.StatusOK, "ok", map[string]any{
		"status":      "UP",
		"dispatching": h.dispatch != nil && h.dispatch.Busy(),
		"queue":       h.statsUC.Execute(r.Context()),
	})
}
