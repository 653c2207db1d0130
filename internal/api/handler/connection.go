package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/fedreg/internal/api/request"
	"github.com/edvin/fedreg/internal/api/response"
	"github.com/edvin/fedreg/internal/core"
)

// linkFunc connects or disconnects two entities and reports whether anything
// changed.
type linkFunc func(ctx context.Context, uid, peerUID string) (bool, error)

// Connection serves a relationship sub-path: PUT connects and DELETE
// disconnects. Both answer 200 with the entity when something changed and
// 304 otherwise.
type Connection struct {
	connect    linkFunc
	disconnect linkFunc
	get        func(ctx context.Context, uid string, shape core.Shape) (any, error)
}

func NewConnection[U any](res *Resource[U], connect, disconnect linkFunc) *Connection {
	return &Connection{connect: connect, disconnect: disconnect, get: res.svc.Get}
}

// Routes mounts the sub-path under pattern, e.g. "/{uid}/flavors/{peer}".
func (h *Connection) Routes(r chi.Router, pattern string) {
	r.Put(pattern, h.Connect)
	r.Delete(pattern, h.Disconnect)
}

func (h *Connection) Connect(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.connect)
}

func (h *Connection) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.disconnect)
}

func (h *Connection) serve(w http.ResponseWriter, r *http.Request, fn linkFunc) {
	uid, err := request.RequireID(chi.URLParam(r, "uid"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	peer, err := request.RequireID(chi.URLParam(r, "peer"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	shape, err := shapeOf(r)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	changed, err := fn(r.Context(), uid, peer)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !changed {
		response.WriteNotModified(w)
		return
	}

	item, err := h.get(r.Context(), uid, shape)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, item)
}
