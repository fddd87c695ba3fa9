package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Leganyst/rollcall/internal/apperr"
	"github.com/Leganyst/rollcall/internal/logging"
)

// envelope — единый формат ответа.
type envelope struct {
	Data   any `json:"data"`
	Errors any `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

func writeErrors(w http.ResponseWriter, status int, errs any) {
	writeJSON(w, status, envelope{Errors: errs})
}

// statusFor сопоставляет вид доменной ошибки HTTP-статусу. Ролевые ошибки
// из данных (например, не-STAFF в пакете смен) дают 400, проверка роли
// вызывающего делается в requireRole и отдаёт 403.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrNoOp),
		errors.Is(err, apperr.ErrDuplicate),
		errors.Is(err, apperr.ErrRole):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrInconsistentState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeErrors(w, statusFor(err), apperr.PublicMessage(err))
}

// writeFailure работает как writeError и дополнительно логирует непредвиденные ошибки.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.Kind(err) == "unexpected" {
		if logger := logging.FromContext(r.Context()); logger != nil {
			logger.ErrorContext(r.Context(), "request failed", "error", err)
		}
	}
	writeError(w, err)
}

// fieldErrors — ошибки разбора входных данных по полям.
type fieldErrors map[string]string

func (fe fieldErrors) add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
