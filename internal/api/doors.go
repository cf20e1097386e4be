package api

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/timada-org/doorphone/internal/door"
)

func (app *App) listDoors() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		doors, err := app.registry.List(r.Context())
		if err != nil {
			app.writeError(w, err)
			return
		}

		app.writeJSON(w, http.StatusOK, doors)
	}
}

func (app *App) createDoor() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		decoder := json.NewDecoder(r.Body)
		var input door.CreateInput
		if err := decoder.Decode(&input); err != nil {
			http.Error(w, "Bad request.", http.StatusBadRequest)
			return
		}

		d, err := app.registry.Create(r.Context(), input)
		if err != nil {
			app.writeError(w, err)
			return
		}

		app.writeJSON(w, http.StatusCreated, d)
	}
}

func (app *App) getDoor() httprouter.Handle {
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

		app.writeJSON(w, http.StatusOK, d)
	}
}

func (app *App) updateDoor() httprouter.Handle {
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

		input, err := decodeUpdateInput(body)
		if err != nil {
			app.writeError(w, err)
			return
		}

		d, err := app.registry.Update(r.Context(), id, input)
		if err != nil {
			app.writeError(w, err)
			return
		}

		app.writeJSON(w, http.StatusOK, d)
	}
}

func (app *App) deleteDoor() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := door.ParseID(p.ByName("id"))
		if err != nil {
			app.writeError(w, err)
			return
		}

		if err := app.registry.Delete(r.Context(), id); err != nil {
			app.writeError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
