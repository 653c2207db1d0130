package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func validPayload() ProviderCreateExtended {
	p := ProviderCreateExtended{Provider: NewProvider("openstack-1", ProviderTypeOpenStack)}
	p.Projects = []Project{{Name: "alpha", UUID: "p-1"}, {Name: "beta", UUID: "p-2"}}
	p.IdentityProviders = []IdentityProviderCreateExtended{{
		IdentityProvider: IdentityProvider{Endpoint: "https://idp.example.org", GroupClaim: "groups"},
		Relationship:     AuthMethod{IdPName: "infn", Protocol: "openid"},
		UserGroups: []UserGroupCreateExtended{{
			UserGroup: UserGroup{Name: "team-a"},
			SLA: SLACreateExtended{
				SLA:     SLA{DocUUID: "doc-1", StartDate: NewDate(2024, time.January, 1), EndDate: NewDate(2025, time.January, 1)},
				Project: "p-1",
			},
		}},
	}}
	compute := ComputeServiceCreateExtended{Service: NewService(ServiceTypeCompute, ServiceNameNova, "https://nova.example.org")}
	compute.Flavors = []FlavorCreateExtended{
		{Flavor: Flavor{Name: "tiny", UUID: "f-1", IsPublic: true}},
		{Flavor: Flavor{Name: "gpu", UUID: "f-2", GPUs: 1, GPUModel: strPtr("A100")}, Projects: []string{"p-2"}},
	}
	q := ComputeQuotaCreateExtended{ComputeQuota: NewComputeQuota(), Project: "p-1"}
	compute.Quotas = []ComputeQuotaCreateExtended{q}
	region := RegionCreateExtended{Region: NewRegion("RegionOne"), ComputeServices: []ComputeServiceCreateExtended{compute}}
	p.Regions = []RegionCreateExtended{region}
	return p
}

func TestProviderCreateExtended_CheckValid(t *testing.T) {
	p := validPayload()
	require.NoError(t, p.Check())
	require.NoError(t, NewValidator().Struct(p))
}

func TestProviderCreateExtended_CheckDuplicates(t *testing.T) {
	p := validPayload()
	p.Projects = append(p.Projects, Project{Name: "alpha", UUID: "p-1"})
	p.Regions = append(p.Regions, RegionCreateExtended{Region: NewRegion("RegionOne")})

	err := p.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "There are multiple items with identical uuid: p-1")
	assert.Contains(t, err.Error(), "There are multiple items with identical name: alpha")
	assert.Contains(t, err.Error(), "There are multiple items with identical name: RegionOne")
}

func TestProviderCreateExtended_CheckProjectNotInProvider(t *testing.T) {
	p := validPayload()
	p.Regions[0].ComputeServices[0].Flavors[1].Projects = []string{"p-9"}

	err := p.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Flavor gpu's project p-9 not in this provider")
}

func TestProviderCreateExtended_CheckSLAProjectReuse(t *testing.T) {
	p := validPayload()
	second := p.IdentityProviders[0].UserGroups[0]
	second.Name = "team-b"
	second.SLA.DocUUID = "doc-2"
	p.IdentityProviders[0].UserGroups = append(p.IdentityProviders[0].UserGroups, second)

	err := p.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Project p-1 already used by another SLA")
}

func TestProviderCreateExtended_CheckQuotaCardinality(t *testing.T) {
	p := validPayload()
	svc := &p.Regions[0].ComputeServices[0]
	perUser := ComputeQuotaCreateExtended{ComputeQuota: NewComputeQuota(), Project: "p-1"}
	perUser.PerUser = true
	svc.Quotas = append(svc.Quotas, perUser)
	require.NoError(t, p.Check())

	svc.Quotas = append(svc.Quotas, ComputeQuotaCreateExtended{ComputeQuota: NewComputeQuota(), Project: "p-1"})
	err := p.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Multiple quotas on same project p-1")
}

func TestFlavorCreateExtended_Visibility(t *testing.T) {
	public := FlavorCreateExtended{Flavor: Flavor{IsPublic: true}, Projects: []string{"p-1"}}
	assert.EqualError(t, public.check(), "Public flavors do not have linked projects")

	private := FlavorCreateExtended{Flavor: Flavor{IsPublic: false}}
	assert.EqualError(t, private.check(), "Projects are mandatory for private flavors")

	ok := FlavorCreateExtended{Flavor: Flavor{IsPublic: false}, Projects: []string{"p-1"}}
	assert.NoError(t, ok.check())
}

func TestImageCreateExtended_Visibility(t *testing.T) {
	public := ImageCreateExtended{Image: Image{IsPublic: true}, Projects: []string{"p-1"}}
	assert.EqualError(t, public.check(), "Public images do not have linked projects")

	private := ImageCreateExtended{Image: Image{IsPublic: false}}
	assert.EqualError(t, private.check(), "Projects are mandatory for private images")
}

func TestNetworkCreateExtended_Visibility(t *testing.T) {
	shared := NetworkCreateExtended{Network: Network{IsShared: true}, Project: strPtr("p-1")}
	assert.EqualError(t, shared.check(), "Shared networks do not have a linked project")

	private := NetworkCreateExtended{Network: Network{IsShared: false}}
	assert.EqualError(t, private.check(), "Projects is mandatory for private networks")
}

func TestProviderCreateExtended_UnmarshalDefaults(t *testing.T) {
	body := `{
		"name": "openstack-1",
		"type": "openstack",
		"regions": [{
			"name": "RegionOne",
			"compute_services": [{
				"endpoint": "https://nova.example.org",
				"type": "compute",
				"name": "openstack-nova",
				"flavors": [{"name": "tiny", "uuid": "f-1"}],
				"quotas": [{"project": "p-1", "cores": 10}]
			}],
			"network_services": [{
				"endpoint": "https://neutron.example.org",
				"type": "network",
				"name": "openstack-neutron",
				"networks": [{"name": "public", "uuid": "n-1"}]
			}]
		}]
	}`
	var p ProviderCreateExtended
	require.NoError(t, json.Unmarshal([]byte(body), &p))

	assert.Equal(t, ProviderStatusActive, p.Status)
	require.Len(t, p.Regions, 1)
	assert.Equal(t, 1.0, p.Regions[0].OverbookingCPU)
	assert.Equal(t, 10.0, p.Regions[0].BandwidthOut)
	assert.True(t, p.Regions[0].ComputeServices[0].Flavors[0].IsPublic)
	assert.Equal(t, ServiceTypeCompute, p.Regions[0].ComputeServices[0].Quotas[0].Type)
	assert.Equal(t, 10, *p.Regions[0].ComputeServices[0].Quotas[0].Cores)
	assert.True(t, p.Regions[0].NetworkServices[0].Networks[0].IsShared)
}

func TestValidator_FlavorGPUFields(t *testing.T) {
	v := NewValidator()
	err := v.Struct(Flavor{Name: "f", UUID: "u", GPUModel: strPtr("A100")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gpu_model")

	assert.NoError(t, v.Struct(Flavor{Name: "f", UUID: "u", GPUs: 2, GPUModel: strPtr("A100")}))
}

func TestValidator_SLADates(t *testing.T) {
	v := NewValidator()
	err := v.Struct(SLA{DocUUID: "d", StartDate: NewDate(2024, time.June, 1), EndDate: NewDate(2024, time.January, 1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end_date")

	assert.Error(t, v.Struct(SLA{DocUUID: "d"}))
}

func TestValidator_ServiceName(t *testing.T) {
	v := NewValidator()
	assert.Error(t, v.Struct(NewService(ServiceTypeCompute, ServiceNameCinder, "https://x.example.org")))
	assert.NoError(t, v.Struct(NewService(ServiceTypeCompute, ServiceNameNova, "https://x.example.org")))
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(2024, time.March, 5)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05"`, string(b))

	var back Date
	require.Error(t, json.Unmarshal([]byte(`"05/03/2024"`), &back))
}
