package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/golfclub/internal/api/apierr"
	"github.com/mcoot/golfclub/internal/model"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// decodeJSON reads a JSON body, reporting malformed input as a bad request
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return NewInvalidRequestError(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// pathInt64 reads a positive integer path variable
func pathInt64(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewInvalidRequestError(fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

func memberID(r *http.Request, name string) (model.MemberID, error) {
	id, err := pathInt64(r, name)
	return model.MemberID(id), err
}

func tournamentID(r *http.Request, name string) (model.TournamentID, error) {
	id, err := pathInt64(r, name)
	return model.TournamentID(id), err
}

// queryInt reads a required integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0, NewInvalidRequestError(fmt.Sprintf("%s query parameter must be an integer", name))
	}
	return v, nil
}

// queryFloat reads a required number query parameter
func queryFloat(r *http.Request, name string) (float64, error) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil {
		return 0, NewInvalidRequestError(fmt.Sprintf("%s query parameter must be a number", name))
	}
	return v, nil
}

// queryDate reads a required YYYY-MM-DD query parameter
func queryDate(r *http.Request, name string) (time.Time, error) {
	d, err := model.ParseDate(r.URL.Query().Get(name))
	if err != nil {
		return time.Time{}, NewInvalidRequestError(fmt.Sprintf("%s query parameter must be YYYY-MM-DD", name))
	}
	return d, nil
}
