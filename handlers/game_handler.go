package handlers

import (
	"fmt"
	"net/http"

	"github.com/Dosada05/rift-arena/middleware"
	"github.com/Dosada05/rift-arena/models"
	"github.com/Dosada05/rift-arena/services"
)

type GameHandler struct {
	gameService services.GameService
}

func NewGameHandler(gameService services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, callerRole, err := callerFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.Create(r.Context(), callerID, callerRole, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.GameStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.GameStatus(raw)
		switch s {
		case models.GameStatusOpen, models.GameStatusInProgress, models.GameStatusCompleted, models.GameStatusDisputed:
			status = &s
		default:
			badRequestResponse(w, r, fmt.Errorf("invalid status %q", raw))
			return
		}
	}

	games, err := h.gameService.List(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidURLParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	id, err := uuidURLParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Team int `json:"team"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.Join(r.Context(), id, callerID, input.Team)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Verify(w http.ResponseWriter, r *http.Request) {
	callerID, callerRole, err := callerFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	id, err := uuidURLParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		WinnerTeam int `json:"winner_team"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.Verify(r.Context(), id, callerID, callerRole, input.WinnerTeam)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
