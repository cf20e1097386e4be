package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/timada-org/doorphone/internal/core"
	"github.com/timada-org/doorphone/internal/door"
	"github.com/timada-org/doorphone/internal/sse"
)

func (app *App) events() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := door.ParseID(p.ByName("id"))
		if err != nil {
			app.writeError(w, err)
			return
		}

		app.server.Serve(w, r, func(session *sse.Session) func() {
			sub := core.Subscribe(app.bus, id, session, core.SubscriptionOptions{
				Keepalive: app.config.Keepalive(),
				Clock:     app.clock,
				Logger:    app.logger,
			})

			return sub.Close
		})
	}
}

func (app *App) press() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := door.ParseID(p.ByName("id"))
		if err != nil {
			app.writeError(w, err)
			return
		}

		body, err := decodeBody(r)
		if err != nil {
			http.Error(w, "Bad request.", http.StatusBadRequest)
			return
		}

		input, err := decodePressInput(body)
		if err != nil {
			app.writeError(w, err)
			return
		}

		_, err = app.dispatcher.Press(r.Context(), core.PressRequest{
			DoorID:     id,
			Kind:       core.Kind(input.Source),
			SourceID:   input.IDFrom,
			SourceName: input.CustomName,
		})
		if err != nil {
			app.writeError(w, err)
			return
		}

		app.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func (app *App) opened() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := door.ParseID(p.ByName("id"))
		if err != nil {
			app.writeError(w, err)
			return
		}

		if _, err := app.dispatcher.Open(r.Context(), id); err != nil {
			app.writeError(w, err)
			return
		}

		app.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
