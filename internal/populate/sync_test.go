package populate

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	capjwt "github.com/hashicorp/cap/jwt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/fedreg/internal/api"
	mw "github.com/edvin/fedreg/internal/api/middleware"
	"github.com/edvin/fedreg/internal/config"
	"github.com/edvin/fedreg/internal/core"
	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

const testIssuer = "https://idp.example.org"

// acceptAll trusts every token it is given.
type acceptAll struct{}

func (acceptAll) Validate(_ context.Context, token string, _ capjwt.Expected) (map[string]interface{}, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// fakeDiscoverer returns the configured skeleton with one project and a
// private flavor. ram lets a test change what OpenStack reports.
type fakeDiscoverer struct {
	ram   int
	calls int
	err   error
}

func (f *fakeDiscoverer) Discover(_ context.Context, p ProviderConfig) (model.ProviderCreateExtended, error) {
	f.calls++
	if f.err != nil {
		return model.ProviderCreateExtended{}, f.err
	}
	out, err := p.skeleton()
	if err != nil {
		return out, err
	}
	out.Projects = []model.Project{{Name: "team-a", UUID: "p-1"}}
	flavor := model.FlavorCreateExtended{
		Flavor:   model.Flavor{Name: "gpu", UUID: "f-1", RAM: f.ram, VCPUs: 4},
		Projects: []string{"p-1"},
	}
	out.Regions[0].ComputeServices = []model.ComputeServiceCreateExtended{{
		Service: model.NewService(model.ServiceTypeCompute, model.ServiceNameNova, "https://nova.example.org/v2.1"),
		Flavors: []model.FlavorCreateExtended{flavor},
	}}
	return out, nil
}

func testToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": testIssuer,
		"sub": "populate",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func newRegistry(t *testing.T) (*core.Services, *Client) {
	t.Helper()
	store, err := graph.NewMemStore()
	require.NoError(t, err)
	services := core.NewServices(store, model.NewValidator(), nil)
	auth := mw.NewAuthenticatorWithValidators(map[string]mw.TokenValidator{testIssuer: acceptAll{}}, "", []string{"populate"})
	srv := httptest.NewServer(api.NewServer(zerolog.Nop(), services, auth, prometheus.NewRegistry(), &config.Config{}))
	t.Cleanup(srv.Close)
	return services, NewClient(srv.URL, testToken(t))
}

func discoveredProvider() ProviderConfig {
	return ProviderConfig{
		Name:    "openstack-1",
		AuthURL: "https://keystone.example.org/v3",
		Regions: []RegionConfig{{Name: "RegionOne"}},
		Projects: []ProjectConfig{
			{ID: "p-1", ApplicationCredentialID: "cred", ApplicationCredentialSecret: "shh"},
		},
	}
}

func TestSyncer_Run(t *testing.T) {
	services, client := newRegistry(t)
	var logs bytes.Buffer
	disc := &fakeDiscoverer{ram: 1024}
	s := &Syncer{Client: client, Discover: disc, Logger: zerolog.New(&logs)}
	cfg := &Config{Providers: []ProviderConfig{discoveredProvider()}}
	ctx := context.Background()

	require.NoError(t, s.Run(ctx, cfg))
	assert.Contains(t, logs.String(), `"action":"created"`)

	items, err := services.Flavors.List(ctx, url.Values{"name": {"gpu"}}, true)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	logs.Reset()
	require.NoError(t, s.Run(ctx, cfg))
	assert.Contains(t, logs.String(), `"action":"unchanged"`)

	logs.Reset()
	disc.ram = 2048
	require.NoError(t, s.Run(ctx, cfg))
	assert.Contains(t, logs.String(), `"action":"updated"`)
	assert.Equal(t, 3, disc.calls)
}

func TestSyncer_PayloadFile(t *testing.T) {
	_, client := newRegistry(t)
	path := filepath.Join(t.TempDir(), "k8s.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"name": "k8s-1",
		"type": "kubernetes",
		"projects": [{"name": "ns-a", "uuid": "p-1"}],
		"regions": [{"name": "default"}]
	}`), 0o600))

	var logs bytes.Buffer
	s := &Syncer{Client: client, Discover: &fakeDiscoverer{err: errors.New("must not be called")}, Logger: zerolog.New(&logs)}
	require.NoError(t, s.Run(context.Background(), &Config{Providers: []ProviderConfig{{PayloadFile: path}}}))
	assert.Contains(t, logs.String(), `"provider":"`+path+`"`)
	assert.Contains(t, logs.String(), `"action":"created"`)
}

func TestSyncer_DryRun(t *testing.T) {
	var logs bytes.Buffer
	s := &Syncer{Discover: &fakeDiscoverer{ram: 1024}, Logger: zerolog.New(&logs), DryRun: true}

	require.NoError(t, s.Run(context.Background(), &Config{Providers: []ProviderConfig{discoveredProvider()}}))
	assert.Contains(t, logs.String(), "dry run: payload is valid")
	assert.Contains(t, logs.String(), `"projects":1`)
}

func TestSyncer_CollectsFailures(t *testing.T) {
	_, client := newRegistry(t)
	var logs bytes.Buffer
	s := &Syncer{Client: client, Discover: &fakeDiscoverer{ram: -1}, Logger: zerolog.New(&logs)}

	bad := discoveredProvider()
	missing := ProviderConfig{PayloadFile: filepath.Join(t.TempDir(), "missing.json")}
	err := s.Run(context.Background(), &Config{Providers: []ProviderConfig{bad, missing}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider openstack-1: invalid payload")
	assert.Contains(t, err.Error(), "missing.json: read payload")
}

func TestSyncer_RejectsInconsistentPayload(t *testing.T) {
	s := &Syncer{Discover: &fakeDiscoverer{ram: 1024}, Logger: zerolog.Nop(), DryRun: true}

	p := discoveredProvider()
	p.IdentityProviders = []IdentityProviderConfig{{
		Endpoint:   "https://idp.example.org",
		GroupClaim: "groups",
		Name:       "infn",
		Protocol:   "openid",
		UserGroups: []UserGroupConfig{{
			Name: "team-a",
			SLA:  SLAConfig{DocUUID: "doc-1", StartDate: "2024-01-01", EndDate: "2025-01-01", Project: "p-unknown"},
		}},
	}}
	err := s.Provider(context.Background(), p)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not in this provider"), err.Error())
}

func TestSyncer_RegistryRejectsToken(t *testing.T) {
	_, client := newRegistry(t)
	client.Token = ""
	s := &Syncer{Client: client, Discover: &fakeDiscoverer{ram: 1024}, Logger: zerolog.Nop()}

	err := s.Provider(context.Background(), discoveredProvider())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCreation))
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 401, reqErr.StatusCode)
}
