package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/elonfeng/founderboard/pkg/discussion"
	"github.com/elonfeng/founderboard/pkg/progress"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// badRequest is a client error whose message is safe to return.
type badRequest string

func (e badRequest) Error() string { return string(e) }

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"data": data})
}

func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"count": len(items),
	})
}

// writeError maps domain errors to status codes. Unexpected errors are logged
// and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var br badRequest
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &br),
		errors.Is(err, discussion.ErrValidation),
		errors.Is(err, progress.ErrInvalidItem):
		status = http.StatusBadRequest
	case errors.Is(err, discussion.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, discussion.ErrNotFound):
		status = http.StatusNotFound
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeValidate reads a JSON body into v and runs its validate tags.
func decodeValidate(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("body is invalid json")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return badRequest(verrs[0].Field() + " is invalid")
		}
		return badRequest("body is invalid")
	}
	return nil
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, badRequest("invalid discussion id")
	}
	return id, nil
}
