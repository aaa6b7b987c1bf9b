package handlers

import (
	"net/http"

	"github.com/Dosada05/rift-arena/services"
)

type AdminHandler struct {
	adminService services.AdminService
}

func NewAdminHandler(adminService services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	_, callerRole, err := callerFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	users, err := h.adminService.ListUsers(r.Context(), callerRole)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	_, callerRole, err := callerFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	id, err := uuidURLParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.AdminUpdateUserInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.adminService.UpdateUser(r.Context(), callerRole, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	_, callerRole, err := callerFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	id, err := uuidURLParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.adminService.DeleteUser(r.Context(), callerRole, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	_, callerRole, err := callerFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	id, err := uuidURLParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.adminService.DeleteGame(r.Context(), callerRole, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	_, callerRole, err := callerFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	pendingOnly := r.URL.Query().Get("pending") == "true"
	redemptions, err := h.adminService.ListRedemptions(r.Context(), callerRole, pendingOnly)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"redemptions": redemptions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) MarkRedemptionEmailSent(w http.ResponseWriter, r *http.Request) {
	_, callerRole, err := callerFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	id, err := uuidURLParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.adminService.MarkRedemptionEmailSent(r.Context(), callerRole, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) FulfillRedemption(w http.ResponseWriter, r *http.Request) {
	_, callerRole, err := callerFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	id, err := uuidURLParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.adminService.FulfillRedemption(r.Context(), callerRole, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	_, callerRole, err := callerFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	stats, err := h.adminService.Stats(r.Context(), callerRole)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
