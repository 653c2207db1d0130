package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/fedreg/internal/api/request"
	"github.com/edvin/fedreg/internal/api/response"
	"github.com/edvin/fedreg/internal/core"
	"github.com/edvin/fedreg/internal/model"
)

// Provider adds the create-extended endpoints to the provider collection.
type Provider struct {
	*Resource[model.ProviderUpdate]
	svc *core.ProviderService
}

func NewProvider(svc *core.ProviderService) *Provider {
	return &Provider{Resource: NewResource[model.ProviderUpdate](svc), svc: svc}
}

func (h *Provider) Routes(r chi.Router) {
	h.Resource.Routes(r)
	r.Post("/", h.Create)
	r.Put("/{uid}", h.Update)
}

// Create registers a provider with everything it owns.
func (h *Provider) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ProviderCreateExtended
	if err := request.Decode(r, &in); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.svc.CreateExtended(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, item)
}

// Update converges a stored provider to the payload.
func (h *Provider) Update(w http.ResponseWriter, r *http.Request) {
	uid, err := request.RequireID(chi.URLParam(r, "uid"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in model.ProviderCreateExtended
	if err := request.Decode(r, &in); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, changed, err := h.svc.UpdateExtended(r.Context(), uid, in)
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
