package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/edvin/fedreg/internal/api/middleware"
	"github.com/edvin/fedreg/internal/core"
	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

// testRouter mounts the provider, project and flavor collections. Requests
// carrying an X-Test-Subject header are treated as authenticated.
func testRouter(t *testing.T) (http.Handler, *core.Services) {
	t.Helper()
	store, err := graph.NewMemStore()
	require.NoError(t, err)
	svc := core.NewServices(store, model.NewValidator(), nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sub := r.Header.Get("X-Test-Subject"); sub != "" {
				r = r.WithContext(mw.WithIdentity(r.Context(), &mw.Identity{Issuer: "test", Subject: sub}))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Route("/providers", NewProvider(svc.Providers).Routes)
	r.Route("/regions", NewResource[model.RegionUpdate](svc.Regions).Routes)
	project := NewResource[model.ProjectUpdate](svc.Projects)
	flavors := NewConnection(project, svc.Projects.ConnectFlavor, svc.Projects.DisconnectFlavor)
	r.Route("/projects", func(r chi.Router) {
		project.Routes(r)
		flavors.Routes(r, "/{uid}/flavors/{peer}")
	})
	r.Route("/flavors", NewResource[model.FlavorUpdate](svc.Flavors).Routes)
	return r, svc
}

func testProvider() model.ProviderCreateExtended {
	p := model.ProviderCreateExtended{Provider: model.NewProvider("openstack-1", model.ProviderTypeOpenStack)}
	p.Projects = []model.Project{{Name: "alpha", UUID: "p-1"}, {Name: "beta", UUID: "p-2"}}
	compute := model.ComputeServiceCreateExtended{Service: model.NewService(model.ServiceTypeCompute, model.ServiceNameNova, "https://nova.example.org")}
	compute.Flavors = []model.FlavorCreateExtended{
		{Flavor: model.Flavor{Name: "tiny", UUID: "f-1", IsPublic: true, VCPUs: 1}},
		{Flavor: model.Flavor{Name: "gpu", UUID: "f-2", VCPUs: 8, GPUs: 1}, Projects: []string{"p-1"}},
	}
	region := model.RegionCreateExtended{Region: model.NewRegion("RegionOne"), ComputeServices: []model.ComputeServiceCreateExtended{compute}}
	p.Regions = []model.RegionCreateExtended{region}
	return p
}

func do(t *testing.T, h http.Handler, method, path string, body any, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if auth {
		req.Header.Set("X-Test-Subject", "alice")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var l []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	return l
}

func createProvider(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/providers/", testProvider(), true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeMap(t, rec)["uid"].(string)
}

func findUID(t *testing.T, h http.Handler, path string) string {
	t.Helper()
	rec := do(t, h, http.MethodGet, path, nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	items := decodeList(t, rec)
	require.Len(t, items, 1)
	return items[0]["uid"].(string)
}

// ---------- Provider ----------

func TestProvider_Create(t *testing.T) {
	h, _ := testRouter(t)
	rec := do(t, h, http.MethodPost, "/providers/", testProvider(), true)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, "openstack-1", body["name"])
	assert.Len(t, body["projects"], 2)
	assert.Len(t, body["regions"], 1)
}

func TestProvider_CreateDuplicate(t *testing.T) {
	h, _ := testRouter(t)
	createProvider(t, h)

	rec := do(t, h, http.MethodPost, "/providers/", testProvider(), true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Provider with name 'openstack-1' already registered", decodeMap(t, rec)["error"])
}

func TestProvider_CreateInvalidJSON(t *testing.T) {
	h, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/providers/", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeMap(t, rec)["error"], "invalid JSON")
}

func TestProvider_UpdateIdempotent(t *testing.T) {
	h, _ := testRouter(t)
	uid := createProvider(t, h)

	rec := do(t, h, http.MethodPut, "/providers/"+uid, testProvider(), true)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	p := testProvider()
	p.SupportEmails = []string{"ops@example.org"}
	rec = do(t, h, http.MethodPut, "/providers/"+uid, p, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []any{"ops@example.org"}, decodeMap(t, rec)["support_emails"])
}

func TestProvider_UpdateMissing(t *testing.T) {
	h, _ := testRouter(t)
	rec := do(t, h, http.MethodPut, "/providers/missing", testProvider(), true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Provider 'missing' not found", decodeMap(t, rec)["error"])
}

// ---------- Resource ----------

func TestResource_GetShapes(t *testing.T) {
	h, _ := testRouter(t)
	uid := createProvider(t, h)

	rec := do(t, h, http.MethodGet, "/providers/"+uid, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeMap(t, rec), "status")

	rec = do(t, h, http.MethodGet, "/providers/"+uid, nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decodeMap(t, rec), "status")

	rec = do(t, h, http.MethodGet, "/providers/"+uid+"?with_conn=true", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeMap(t, rec)["regions"], 1)

	rec = do(t, h, http.MethodGet, "/providers/"+uid+"?short=maybe", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResource_GetMissing(t *testing.T) {
	h, _ := testRouter(t)
	rec := do(t, h, http.MethodGet, "/flavors/nope", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Flavor 'nope' not found", decodeMap(t, rec)["error"])
}

func TestResource_ListFilters(t *testing.T) {
	h, _ := testRouter(t)
	createProvider(t, h)

	rec := do(t, h, http.MethodGet, "/flavors/?is_public=true", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeList(t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "tiny", items[0]["name"])

	rec = do(t, h, http.MethodGet, "/flavors/?sort=name_asc&size=1&page=0", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	items = decodeList(t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "gpu", items[0]["name"])

	rec = do(t, h, http.MethodGet, "/flavors/?vcpus__gt=abc", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResource_Patch(t *testing.T) {
	h, _ := testRouter(t)
	createProvider(t, h)
	uid := findUID(t, h, "/flavors/?uuid=f-1")

	rec := do(t, h, http.MethodPatch, "/flavors/"+uid, map[string]any{"name": "tiny"}, true)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = do(t, h, http.MethodPatch, "/flavors/"+uid, map[string]any{"description": "smallest"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "smallest", decodeMap(t, rec)["description"])

	rec = do(t, h, http.MethodPatch, "/flavors/"+uid, map[string]any{"is_public": false}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Flavor visibility can't be changed", decodeMap(t, rec)["error"])
}

func TestResource_PatchValidation(t *testing.T) {
	h, _ := testRouter(t)
	createProvider(t, h)
	uid := findUID(t, h, "/flavors/?uuid=f-1")

	rec := do(t, h, http.MethodPatch, "/flavors/"+uid, map[string]any{"vcpus": -1}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeMap(t, rec)["error"], "validation error")
}

func TestResource_Delete(t *testing.T) {
	h, _ := testRouter(t)
	createProvider(t, h)
	uid := findUID(t, h, "/flavors/?uuid=f-1")

	rec := do(t, h, http.MethodDelete, "/flavors/"+uid, nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/flavors/"+uid, nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResource_DeleteLastRegion(t *testing.T) {
	h, _ := testRouter(t)
	createProvider(t, h)
	uid := findUID(t, h, "/regions/?name=RegionOne")

	rec := do(t, h, http.MethodDelete, "/regions/"+uid, nil, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to delete item", decodeMap(t, rec)["error"])
}

// ---------- Connection ----------

func TestConnection_ProjectFlavors(t *testing.T) {
	h, _ := testRouter(t)
	createProvider(t, h)
	p1 := findUID(t, h, "/projects/?uuid=p-1")
	p2 := findUID(t, h, "/projects/?uuid=p-2")
	gpu := findUID(t, h, "/flavors/?uuid=f-2")

	rec := do(t, h, http.MethodPut, "/projects/"+p1+"/flavors/"+gpu, nil, true)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = do(t, h, http.MethodPut, "/projects/"+p2+"/flavors/"+gpu, nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, p2, decodeMap(t, rec)["uid"])

	rec = do(t, h, http.MethodDelete, "/projects/"+p2+"/flavors/"+gpu, nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/projects/"+p2+"/flavors/"+gpu, nil, true)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestConnection_PublicFlavor(t *testing.T) {
	h, _ := testRouter(t)
	createProvider(t, h)
	p1 := findUID(t, h, "/projects/?uuid=p-1")
	tiny := findUID(t, h, "/flavors/?uuid=f-1")

	rec := do(t, h, http.MethodPut, "/projects/"+p1+"/flavors/"+tiny, nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Flavor "+tiny+" is a public flavor", decodeMap(t, rec)["error"])
}

func TestConnection_Missing(t *testing.T) {
	h, _ := testRouter(t)
	createProvider(t, h)
	gpu := findUID(t, h, "/flavors/?uuid=f-2")

	rec := do(t, h, http.MethodPut, "/projects/missing/flavors/"+gpu, nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
