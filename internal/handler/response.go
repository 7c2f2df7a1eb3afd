package handler

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"nextstep-polls/internal/middleware"
	"nextstep-polls/pkg/errors"
	"nextstep-polls/pkg/logger"
)

// maxBodyBytes bounds request bodies; a poll with many options fits easily
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes err as the standard error envelope. Errors that are not
// an *errors.AppError are reported as internal errors without their text.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError("Internal server error", err)
	}

	entry := log.WithFields(map[string]interface{}{
		"request_id": middleware.GetRequestID(r.Context()),
		"type":       appErr.Type,
		"path":       r.URL.Path,
	})
	if appErr.StatusCode >= http.StatusInternalServerError {
		entry.WithError(err).Error("Request error")
	} else {
		entry.Debug(appErr.Message)
	}

	response := &errors.ErrorResponse{Success: false}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.RequestID = middleware.GetRequestID(r.Context())
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, response)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched
// when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && stderrors.Is(err, io.EOF) {
			return nil
		}
		return errors.NewValidationError("Invalid request body", map[string]interface{}{"reason": err.Error()})
	}
	return nil
}
