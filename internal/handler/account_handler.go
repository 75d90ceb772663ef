package handler

import (
	"encoding/json"
	"net/http"

	"point-ledger/internal/errors"
	"point-ledger/internal/service"
)

type AccountHandler struct {
	pointService *service.PointService
}

func NewAccountHandler(pointService *service.PointService) *AccountHandler {
	return &AccountHandler{
		pointService: pointService,
	}
}

type CreateAccountRequest struct {
	UserID         int64 `json:"user_id"`
	InitialBalance int64 `json:"initial_balance"`
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	account, err := h.pointService.CreateAccount(req.UserID, req.InitialBalance)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, accountResponse(account))
}
