package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/standings-engine/services"
)

type PayoutHandler struct {
	payoutService services.PayoutService
}

func NewPayoutHandler(ps services.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutService: ps}
}

func (h *PayoutHandler) GetPayouts(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ps, err := h.payoutService.Get(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payout_structure": ps}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PayoutHandler) GeneratePayouts(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.GeneratePayoutInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ps, err := h.payoutService.Generate(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payout_structure": ps}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PayoutHandler) SaveManualPayouts(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SaveManualPayoutInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ps, err := h.payoutService.SaveManual(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payout_structure": ps}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemovePayoutPlace deletes one place. The structure must still add up to the
// pot, so removing a paid place needs ?credit_to={place} naming who takes its
// amount; otherwise edit the whole list with PUT.
func (h *PayoutHandler) RemovePayoutPlace(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	place, err := getIDFromURL(r, "place")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	creditTo := 0
	if raw := r.URL.Query().Get("credit_to"); raw != "" {
		creditTo, err = strconv.Atoi(raw)
		if err != nil || creditTo <= 0 {
			badRequestResponse(w, r, fmt.Errorf("invalid credit_to value: %q", raw))
			return
		}
	}

	ps, err := h.payoutService.RemovePlace(r.Context(), tournamentID, place, creditTo)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payout_structure": ps}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
