package core

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

func ptr[T any](v T) *T { return &v }

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) observe(entity, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, entity+":"+action)
}

func newTestServices(t *testing.T) (*Services, *recorder) {
	t.Helper()
	store, err := graph.NewMemStore()
	require.NoError(t, err)
	rec := &recorder{}
	return NewServices(store, model.NewValidator(), rec.observe), rec
}

// testPayload describes provider "openstack-1" with two projects, one
// identity provider whose group holds an SLA on p-1, and region RegionOne
// offering a public and a private flavor, a public image, a private network
// and quotas for p-1.
func testPayload() model.ProviderCreateExtended {
	p := model.ProviderCreateExtended{Provider: model.NewProvider("openstack-1", model.ProviderTypeOpenStack)}
	p.Projects = []model.Project{{Name: "alpha", UUID: "p-1"}, {Name: "beta", UUID: "p-2"}}
	p.IdentityProviders = []model.IdentityProviderCreateExtended{{
		IdentityProvider: model.IdentityProvider{Endpoint: "https://idp.example.org", GroupClaim: "groups"},
		Relationship:     model.AuthMethod{IdPName: "infn", Protocol: "openid"},
		UserGroups: []model.UserGroupCreateExtended{{
			UserGroup: model.UserGroup{Name: "team-a"},
			SLA: model.SLACreateExtended{
				SLA: model.SLA{
					DocUUID:   "doc-1",
					StartDate: model.NewDate(2024, time.January, 1),
					EndDate:   model.NewDate(2025, time.January, 1),
				},
				Project: "p-1",
			},
		}},
	}}

	compute := model.ComputeServiceCreateExtended{Service: model.NewService(model.ServiceTypeCompute, model.ServiceNameNova, "https://nova.example.org")}
	compute.Flavors = []model.FlavorCreateExtended{
		{Flavor: model.Flavor{Name: "tiny", UUID: "f-1", IsPublic: true, VCPUs: 1, RAM: 512}},
		{Flavor: model.Flavor{Name: "gpu", UUID: "f-2", VCPUs: 8, RAM: 65536, GPUs: 1, GPUModel: ptr("A100")}, Projects: []string{"p-2"}},
	}
	compute.Images = []model.ImageCreateExtended{
		{Image: model.Image{Name: "ubuntu", UUID: "i-1", IsPublic: true, OSType: ptr(model.ImageOSLinux)}},
	}
	q := model.ComputeQuotaCreateExtended{ComputeQuota: model.NewComputeQuota(), Project: "p-1"}
	q.Cores = ptr(10)
	compute.Quotas = []model.ComputeQuotaCreateExtended{q}

	network := model.NetworkServiceCreateExtended{Service: model.NewService(model.ServiceTypeNetwork, model.ServiceNameNeutron, "https://neutron.example.org")}
	network.Networks = []model.NetworkCreateExtended{
		{Network: model.Network{Name: "private", UUID: "n-1"}, Project: ptr("p-2")},
	}

	region := model.RegionCreateExtended{
		Region:          model.NewRegion("RegionOne"),
		Location:        &model.Location{Site: "bologna", Country: "Italy"},
		ComputeServices: []model.ComputeServiceCreateExtended{compute},
		NetworkServices: []model.NetworkServiceCreateExtended{network},
		IdentityServices: []model.Service{
			model.NewService(model.ServiceTypeIdentity, model.ServiceNameKeystone, "https://keystone.example.org"),
		},
	}
	p.Regions = []model.RegionCreateExtended{region}
	return p
}

func createTestProvider(t *testing.T, svc *Services) string {
	t.Helper()
	out, err := svc.Providers.CreateExtended(context.Background(), testPayload())
	require.NoError(t, err)
	return out.(map[string]any)["uid"].(string)
}

type lister interface {
	List(ctx context.Context, values url.Values, auth bool) ([]any, error)
}

func listAll(t *testing.T, r lister, filters ...string) []model.Entity {
	t.Helper()
	values := url.Values{}
	for i := 0; i+1 < len(filters); i += 2 {
		values.Set(filters[i], filters[i+1])
	}
	items, err := r.List(context.Background(), values, true)
	require.NoError(t, err)
	out := make([]model.Entity, 0, len(items))
	for _, item := range items {
		out = append(out, item.(model.Entity))
	}
	return out
}

func uidOf(t *testing.T, r lister, filters ...string) string {
	t.Helper()
	items := listAll(t, r, filters...)
	require.Len(t, items, 1)
	return items[0].GetUID()
}
