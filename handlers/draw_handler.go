package handlers

import (
	"fmt"
	"net/http"

	"github.com/Dosada05/petanque-system/models"
	"github.com/Dosada05/petanque-system/services"
	"github.com/go-chi/chi/v5"
)

type DrawHandler struct {
	drawService services.DrawService
}

func NewDrawHandler(ds services.DrawService) *DrawHandler {
	return &DrawHandler{drawService: ds}
}

// StartTournamentHandler handles POST /tournaments/{tournamentID}/start
func (h *DrawHandler) StartTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.drawService.StartTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": result.Tournament, "teams": result.Teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LaunchRoundHandler handles POST /tournaments/{tournamentID}/rounds/{round}/draw
func (h *DrawHandler) LaunchRoundHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := getRoundFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draw, err := h.drawService.LaunchMeleeRound(r.Context(), tournamentID, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"draw": draw}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DrawBracketHandler handles POST /tournaments/{tournamentID}/bracket/draw
func (h *DrawHandler) DrawBracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draw, err := h.drawService.DrawBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": draw}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DrawPoolsHandler handles POST /tournaments/{tournamentID}/pools/draw. The
// body is optional: {"pool_size": 4, "legs": 1}.
func (h *DrawHandler) DrawPoolsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.PoolDrawInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draw, err := h.drawService.DrawPools(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"pools": draw}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetDrawLogHandler handles GET /tournaments/{tournamentID}/draws/{kind}/{round}
func (h *DrawHandler) GetDrawLogHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	kind := models.DrawKind(chi.URLParam(r, "kind"))
	switch kind {
	case models.DrawKindMelee, models.DrawKindBracket, models.DrawKindPools:
	default:
		badRequestResponse(w, r, fmt.Errorf("unknown draw kind %q", kind))
		return
	}
	round, err := getRoundFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	log, err := h.drawService.GetDrawLog(r.Context(), tournamentID, kind, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"draw_log": log}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// VerifyRoundHandler handles GET /tournaments/{tournamentID}/rounds/{round}/verify
func (h *DrawHandler) VerifyRoundHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := getRoundFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	verification, err := h.drawService.VerifyDraw(r.Context(), tournamentID, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"verification": verification}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
