package api

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/timada-org/doorphone/internal/door"
	"github.com/timada-org/doorphone/internal/recording"
	"go.uber.org/zap"
)

const (
	maxUploadSize    = 32 << 20
	uploadField      = "audio"
	uploadMediaType  = "audio/webm;codecs=opus"
	recordingsMaxAge = "private, max-age=86400"
)

func (app *App) listRecordings() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := door.ParseID(p.ByName("id"))
		if err != nil {
			app.writeError(w, err)
			return
		}

		if _, err := app.registry.Get(r.Context(), id); err != nil {
			app.writeError(w, err)
			return
		}

		recordings, err := app.recordings.List(r.Context(), id, app.registry)
		if err != nil {
			app.writeError(w, err)
			return
		}

		app.writeJSON(w, http.StatusOK, map[string]any{"recordings": recordings})
	}
}

func (app *App) deleteRecording() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := door.ParseID(p.ByName("id"))
		if err != nil {
			app.writeError(w, err)
			return
		}

		if _, err := app.registry.Get(r.Context(), id); err != nil {
			app.writeError(w, err)
			return
		}

		if err := app.recordings.Delete(id, p.ByName("filename")); err != nil {
			app.writeError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (app *App) uploadRecording() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			http.Error(w, "Audio payload is required.", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile(uploadField)
		if err != nil {
			http.Error(w, "Audio file is required.", http.StatusBadRequest)
			return
		}
		defer file.Close()

		if !isOpusWebm(header.Header.Get("Content-Type")) {
			http.Error(w, "Audio file is required.", http.StatusBadRequest)
			return
		}

		if header.Filename == "" {
			http.Error(w, "Filename is required.", http.StatusBadRequest)
			return
		}

		name, err := app.recordings.Save(header.Filename, file)
		if err != nil {
			app.writeError(w, err)
			return
		}

		app.logger.Info("recording saved",
			zap.String("filename", name.String()),
			zap.Int64("from", name.From),
			zap.Int64("to", name.To),
		)

		app.writeJSON(w, http.StatusOK, map[string]any{
			"ok":   true,
			"file": recording.URLPrefix + name.String(),
		})
	}
}

func (app *App) serveRecording() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		f, info, err := app.recordings.Open(p.ByName("path"))
		if err != nil {
			app.writeError(w, err)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", recording.ContentType(info.Name()))
		w.Header().Set("Cache-Control", recordingsMaxAge)

		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	}
}

func isOpusWebm(contentType string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(contentType, " ", ""))
	return normalized == uploadMediaType
}
