package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/standings-engine/payouts"
	"github.com/Dosada05/standings-engine/services"
)

type jsonResponse map[string]interface{}

const maxBodyBytes = 1_048_576

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBodyBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBodyBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, body jsonResponse) {
	if err := writeJSON(w, status, body, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response", "error", err, "path", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func messageResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	errorResponse(w, r, status, jsonResponse{"error": message})
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "internal server error", "error", err, "method", r.Method, "path", r.URL.Path)
	messageResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	messageResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	messageResponse(w, r, http.StatusNotFound, err.Error())
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %d", paramName, id)
	}
	return id, nil
}

// mapServiceErrorToHTTP turns service and domain errors into HTTP responses.
// Money errors carry their numbers so a client can show the discrepancy.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var (
		mismatch *payouts.MismatchError
		negative *payouts.NegativePotError
	)

	switch {
	case errors.As(err, &mismatch):
		errorResponse(w, r, http.StatusUnprocessableEntity, jsonResponse{
			"error":      services.ErrPayoutMismatch.Error(),
			"pot":        mismatch.Pot.StringFixed(2),
			"sum":        mismatch.Sum.StringFixed(2),
			"difference": mismatch.Difference.StringFixed(2),
		})
	case errors.As(err, &negative):
		errorResponse(w, r, http.StatusUnprocessableEntity, jsonResponse{
			"error":           services.ErrNegativePot.Error(),
			"total_collected": negative.TotalCollected.StringFixed(2),
			"house_fee":       negative.HouseFee.StringFixed(2),
			"pot":             negative.Pot.StringFixed(2),
		})

	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrPayoutsNotConfigured),
		errors.Is(err, services.ErrPlaceNotFound):
		notFoundResponse(w, r, err)

	case errors.Is(err, services.ErrTournamentNotCompleted):
		messageResponse(w, r, http.StatusConflict, err.Error())

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrUnsupportedFormat),
		errors.Is(err, payouts.ErrInvalidInput),
		errors.Is(err, payouts.ErrNoPayouts),
		errors.Is(err, payouts.ErrTooManyPlaces),
		errors.Is(err, payouts.ErrNegativeAmount),
		errors.Is(err, payouts.ErrInvalidPlace),
		errors.Is(err, payouts.ErrDuplicatePlace),
		errors.Is(err, payouts.ErrNonContiguousPlaces),
		errors.Is(err, payouts.ErrUnsupportedPlaces):
		messageResponse(w, r, http.StatusUnprocessableEntity, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
