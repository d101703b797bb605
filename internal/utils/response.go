package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/logger"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func ErrorResponse(message, code string) APIResponse {
	return APIResponse{
		Success:   false,
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC(),
	}
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		_, _ = w.Write([]byte(`{"success":false,"error":"internal error","code":"internal"}`))
	}
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	WriteJSON(w, status, SuccessResponse(message, data))
}

// WriteError renders err with the status matching its apperr kind. Untyped
// errors become a 500 with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	WriteJSON(w, apperr.HTTPStatus(kind), ErrorResponse(apperr.MessageOf(err), string(kind)))
}

// DecodeJSON reads the request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, "Invalid request body", err)
	}
	return nil
}

// LogAndWriteError logs err under the API category and writes it. Expected
// client errors are logged at debug level.
func LogAndWriteError(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		log.Error("API", fmt.Sprintf("%s: %v", op, err))
	} else {
		log.Debug("API", fmt.Sprintf("%s: %v", op, err))
	}
	WriteError(w, err)
}
