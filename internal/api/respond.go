package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/timada-org/doorphone/internal/door"
	"github.com/timada-org/doorphone/internal/recording"
	"go.uber.org/zap"
)

func (app *App) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		app.logger.Error("failed to encode response", zap.Error(err))
		http.Error(w, "Internal server error.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(data); err != nil {
		app.logger.Debug("failed to write response", zap.Error(err))
	}
}

func (app *App) writeError(w http.ResponseWriter, err error) {
	var verr *door.ValidationError

	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Message, http.StatusBadRequest)
	case errors.Is(err, door.ErrNotFound):
		http.Error(w, "Door not found.", http.StatusNotFound)
	case errors.Is(err, recording.ErrInvalidName):
		http.Error(w, "Invalid recording filename.", http.StatusBadRequest)
	case errors.Is(err, recording.ErrNotFound):
		http.Error(w, "Recording not found.", http.StatusNotFound)
	default:
		app.logger.Error("request failed", zap.Error(err))
		http.Error(w, "Internal server error.", http.StatusInternalServerError)
	}
}

// decodeBody decodes a JSON object body into a generic map. An empty body is
// an empty object.
func decodeBody(r *http.Request) (map[string]any, error) {
	body := map[string]any{}

	if r.Body == nil || r.Body == http.NoBody {
		return body, nil
	}

	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if body == nil {
		body = map[string]any{}
	}

	return body, nil
}
