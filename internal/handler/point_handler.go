package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"point-ledger/internal/domain"
	"point-ledger/internal/errors"
	"point-ledger/internal/service"
)

type PointHandler struct {
	pointService *service.PointService
}

func NewPointHandler(pointService *service.PointService) *PointHandler {
	return &PointHandler{
		pointService: pointService,
	}
}

type AmountRequest struct {
	Amount int64 `json:"amount"`
}

type AccountResponse struct {
	UserID    int64     `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TransactionResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Amount    int64     `json:"amount"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

func accountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		UserID:    account.ID,
		Balance:   account.Balance,
		UpdatedAt: account.UpdatedAt,
	}
}

func parseUserID(r *http.Request) (int64, *errors.AppError) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseInt(vars["user_id"], 10, 64)
	if err != nil || userID <= 0 {
		return 0, errors.NewAppError(errors.InvalidInput, "user id must be a positive integer")
	}
	return userID, nil
}

func (h *PointHandler) GetPoint(w http.ResponseWriter, r *http.Request) {
	userID, appErr := parseUserID(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	account, err := h.pointService.GetAccount(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse(account))
}

func (h *PointHandler) GetHistories(w http.ResponseWriter, r *http.Request) {
	userID, appErr := parseUserID(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	records, err := h.pointService.GetHistory(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]TransactionResponse, 0, len(records))
	for _, record := range records {
		response = append(response, TransactionResponse{
			ID:        record.ID,
			UserID:    record.UserID,
			Amount:    record.Amount,
			Kind:      string(record.Kind),
			Timestamp: record.Timestamp,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *PointHandler) Charge(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.pointService.Charge)
}

func (h *PointHandler) Use(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.pointService.Use)
}

func (h *PointHandler) mutate(w http.ResponseWriter, r *http.Request, op func(int64, int64) (*domain.Account, error)) {
	userID, appErr := parseUserID(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	account, err := op(userID, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse(account))
}
