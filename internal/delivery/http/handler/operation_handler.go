package handler

import (
	"net/http"

	"github.com/vramonlinebsc/hms/internal/delivery/dto"
	"github.com/vramonlinebsc/hms/internal/usecase"
	"github.com/vramonlinebsc/hms/pkg/response"
)

// OperationHandler lets an admin run a background pass on demand.
type OperationHandler struct {
	noShowUsecase  usecase.NoShowUsecase
	penaltyUsecase usecase.PenaltyUsecase
}

func NewOperationHandler(noShowUsecase usecase.NoShowUsecase, penaltyUsecase usecase.PenaltyUsecase) *OperationHandler {
	return &OperationHandler{
		noShowUsecase:  noShowUsecase,
		penaltyUsecase: penaltyUsecase,
	}
}

func (h *OperationHandler) ReconcileNoShows(w http.ResponseWriter, r *http.Request) {
	count, err := h.noShowUsecase.RunOnce(r.Context())
	if err != nil {
		response.AppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "No-show pass completed", dto.ReconcileResponse{Transitioned: count})
}

func (h *OperationHandler) RunPenalties(w http.ResponseWriter, r *http.Request) {
	result, err := h.penaltyUsecase.RunOnce(r.Context())
	if err != nil {
		response.AppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Penalty pass completed", dto.PenaltyRunResponse{
		Created:  result.Created,
		Enqueued: result.Enqueued,
	})
}

func (h *OperationHandler) ListPenalties(w http.ResponseWriter, r *http.Request) {
	penalties, err := h.penaltyUsecase.List(r.Context())
	if err != nil {
		response.AppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Penalties retrieved successfully", penalties)
}
