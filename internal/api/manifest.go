package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/timada-org/doorphone/internal/door"
	"go.uber.org/zap"
)

type Manifest struct {
	ID                        string   `json:"id"`
	Name                      string   `json:"name"`
	ShortName                 string   `json:"short_name"`
	Lang                      string   `json:"lang"`
	Display                   string   `json:"display"`
	StartURL                  string   `json:"start_url"`
	Scope                     string   `json:"scope"`
	ThemeColor                string   `json:"theme_color"`
	BackgroundColor           string   `json:"background_color"`
	Orientation               string   `json:"orientation"`
	Icons                     []any    `json:"icons"`
	RelatedApplications       []any    `json:"related_applications"`
	PreferRelatedApplications bool     `json:"prefer_related_applications"`
	Categories                []string `json:"categories"`
	StartURLFull              string   `json:"start_url_full"`
}

// NewManifest describes the installable app for d: the dashboard for id 0, a
// full screen door phone otherwise.
func NewManifest(d door.Door, origin string) Manifest {
	m := Manifest{
		Lang:                "en",
		BackgroundColor:     "#0f172a",
		Orientation:         "landscape-primary",
		Icons:               []any{},
		RelatedApplications: []any{},
		Categories:          []string{"productivity"},
	}

	if d.ID == door.DashboardID {
		m.ID = "/"
		m.Name = "DoorPhone Dashboard"
		m.ShortName = d.Name
		m.Display = "standalone"
		m.StartURL = "/"
		m.Scope = "/"
		m.ThemeColor = "#0f172a"
		m.StartURLFull = origin
		return m
	}

	startPath := fmt.Sprintf("/doorphone/%d", d.ID)

	m.ID = startPath
	m.Name = d.Name + " | DoorPhone"
	m.ShortName = d.Name
	m.Display = "fullscreen"
	m.StartURL = startPath
	m.Scope = startPath
	m.ThemeColor = "#15803d"
	m.StartURLFull = origin + startPath

	return m
}

func (app *App) manifest() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := door.ParseID(p.ByName("id"))
		if err != nil {
			app.writeError(w, err)
			return
		}

		d, err := app.registry.Get(r.Context(), id)
		if err != nil {
			app.writeError(w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Content-Type", "application/manifest+json; charset=utf-8")
		app.writeManifest(w, NewManifest(*d, requestOrigin(r)))
	}
}

func (app *App) writeManifest(w http.ResponseWriter, m Manifest) {
	data, err := json.Marshal(m)
	if err != nil {
		app.writeError(w, err)
		return
	}

	if _, err := w.Write(data); err != nil {
		app.logger.Debug("failed to write manifest", zap.Error(err))
	}
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host
}
