package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	mw "github.com/edvin/fedreg/internal/api/middleware"
	"github.com/edvin/fedreg/internal/api/request"
	"github.com/edvin/fedreg/internal/api/response"
	"github.com/edvin/fedreg/internal/core"
	"github.com/edvin/fedreg/internal/query"
)

// Collection is the set of operations every registry collection supports.
// U is the partial update payload.
type Collection[U any] interface {
	List(ctx context.Context, values url.Values, auth bool) ([]any, error)
	Get(ctx context.Context, uid string, shape core.Shape) (any, error)
	Patch(ctx context.Context, uid string, in U) (any, bool, error)
	Delete(ctx context.Context, uid string) error
}

// Resource serves the list, read, partial update and delete endpoints of a
// collection.
type Resource[U any] struct {
	svc Collection[U]
}

func NewResource[U any](svc Collection[U]) *Resource[U] {
	return &Resource[U]{svc: svc}
}

// Routes mounts the collection endpoints on r.
func (h *Resource[U]) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{uid}", h.Get)
	r.Patch("/{uid}", h.Patch)
	r.Delete("/{uid}", h.Delete)
}

func (h *Resource[U]) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), r.URL.Query(), mw.Authenticated(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, items)
}

func (h *Resource[U]) Get(w http.ResponseWriter, r *http.Request) {
	uid, err := request.RequireID(chi.URLParam(r, "uid"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	shape, err := shapeOf(r)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.svc.Get(r.Context(), uid, shape)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, item)
}

func (h *Resource[U]) Patch(w http.ResponseWriter, r *http.Request) {
	uid, err := request.RequireID(chi.URLParam(r, "uid"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in U
	if err := request.Decode(r, &in); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, changed, err := h.svc.Patch(r.Context(), uid, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !changed {
		response.WriteNotModified(w)
		return
	}

	response.WriteJSON(w, http.StatusOK, item)
}

func (h *Resource[U]) Delete(w http.ResponseWriter, r *http.Request) {
	uid, err := request.RequireID(chi.URLParam(r, "uid"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), uid); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// shapeOf picks the response shape from the caller's authentication and the
// short and with_conn query parameters.
func shapeOf(r *http.Request) (core.Shape, error) {
	params, err := query.ParseParams(r.URL.Query())
	if err != nil {
		return core.ShapeRead, err
	}
	return core.ChooseShape(mw.Authenticated(r.Context()), params.Short, params.WithConn), nil
}
