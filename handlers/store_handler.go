package handlers

import (
	"net/http"

	"github.com/Dosada05/rift-arena/middleware"
	"github.com/Dosada05/rift-arena/services"
)

type StoreHandler struct {
	storeService services.StoreService
}

func NewStoreHandler(storeService services.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

func (h *StoreHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.storeService.ListItems(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"items": items}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// InitItems — служебный эндпоинт первичного наполнения каталога.
func (h *StoreHandler) InitItems(w http.ResponseWriter, r *http.Request) {
	created, err := h.storeService.SeedDefaultItems(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	message := "Store items initialized"
	if created == 0 {
		message = "Items already initialized"
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": message, "created": created}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StoreHandler) BuySP(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		Amount int `json:"amount"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	transaction, err := h.storeService.BuySP(r.Context(), callerID, input.Amount)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"transaction": transaction}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StoreHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	itemID, err := uuidURLParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	redemption, err := h.storeService.Redeem(r.Context(), callerID, itemID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"redemption": redemption}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StoreHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	transactions, err := h.storeService.ListTransactions(r.Context(), callerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"transactions": transactions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
