package populate

import (
	"testing"

	bsquotasets "github.com/gophercloud/gophercloud/v2/openstack/blockstorage/v3/quotasets"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/flavors"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/quotasets"
	"github.com/gophercloud/gophercloud/v2/openstack/image/v2/images"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/external"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/mtu"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/quotas"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/networks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/fedreg/internal/model"
)

func TestFlavorFrom(t *testing.T) {
	f := flavorFrom(flavors.Flavor{
		ID:        "f-1",
		Name:      "gpu.large",
		Disk:      40,
		RAM:       8192,
		VCPUs:     4,
		Swap:      1,
		Ephemeral: 10,
		IsPublic:  false,
		ExtraSpecs: map[string]string{
			"gpu_number": "2",
			"gpu_model":  "A100",
			"gpu_vendor": "nvidia",
			"infiniband": "True",
			"unrelated":  "x",
		},
	}, []string{"p-1"})

	assert.Equal(t, "f-1", f.UUID)
	assert.Equal(t, "gpu.large", f.Name)
	assert.Equal(t, 40, f.Disk)
	assert.Equal(t, 8192, f.RAM)
	assert.Equal(t, 4, f.VCPUs)
	assert.Equal(t, 10, f.Ephemeral)
	assert.False(t, f.IsPublic)
	assert.Equal(t, 2, f.GPUs)
	require.NotNil(t, f.GPUModel)
	assert.Equal(t, "A100", *f.GPUModel)
	assert.Equal(t, "nvidia", *f.GPUVendor)
	assert.Nil(t, f.LocalStorage)
	assert.True(t, f.Infiniband)
	assert.Equal(t, []string{"p-1"}, f.Projects)

	plain := flavorFrom(flavors.Flavor{ID: "f-2", Name: "tiny", IsPublic: true, ExtraSpecs: map[string]string{"gpu_number": "many"}}, nil)
	assert.Zero(t, plain.GPUs)
	assert.Nil(t, plain.GPUModel)
	assert.False(t, plain.Infiniband)
	assert.Empty(t, plain.Projects)
}

func TestImageFrom(t *testing.T) {
	public := imageFrom(images.Image{
		ID:         "i-1",
		Name:       "ubuntu",
		Visibility: images.ImageVisibilityPublic,
		Owner:      "p-9",
		Properties: map[string]any{
			"os_type":      "linux",
			"os_distro":    "ubuntu",
			"os_version":   "22.04",
			"architecture": "x86_64",
			"cuda_support": "true",
			"min_ram":      512,
		},
	}, nil)
	assert.True(t, public.IsPublic)
	assert.Empty(t, public.Projects)
	assert.Equal(t, []string{}, public.Tags)
	require.NotNil(t, public.OSType)
	assert.Equal(t, model.ImageOSLinux, *public.OSType)
	assert.Equal(t, "ubuntu", *public.OSDistro)
	assert.Equal(t, "22.04", *public.OSVersion)
	assert.Equal(t, "x86_64", *public.Architecture)
	assert.Nil(t, public.KernelID)
	assert.True(t, public.CUDASupport)
	assert.False(t, public.GPUDriver)

	shared := imageFrom(images.Image{
		ID:         "i-2",
		Name:       "custom",
		Visibility: images.ImageVisibilityShared,
		Owner:      "p-1",
		Tags:       []string{"gpu"},
		Properties: map[string]any{"os_type": "windows"},
	}, []string{"p-2"})
	assert.False(t, shared.IsPublic)
	assert.Equal(t, []string{"p-1", "p-2"}, shared.Projects)
	assert.Equal(t, []string{"gpu"}, shared.Tags)
	assert.Equal(t, model.ImageOSWindows, *shared.OSType)

	private := imageFrom(images.Image{ID: "i-3", Name: "mine", Visibility: images.ImageVisibilityPrivate, Owner: "p-1"}, nil)
	assert.False(t, private.IsPublic)
	assert.Equal(t, []string{"p-1"}, private.Projects)
	assert.Nil(t, private.OSType)
}

func TestNetworkFrom(t *testing.T) {
	shared := networkFrom(networkWithExt{
		Network:            networks.Network{ID: "n-1", Name: "public", Shared: true},
		NetworkExternalExt: external.NetworkExternalExt{External: true},
		NetworkMTUExt:      mtu.NetworkMTUExt{MTU: 1500},
	}, "p-1")
	assert.Equal(t, "n-1", shared.UUID)
	assert.True(t, shared.IsShared)
	assert.True(t, shared.IsRouterExternal)
	require.NotNil(t, shared.MTU)
	assert.Equal(t, 1500, *shared.MTU)
	assert.Nil(t, shared.Project)
	assert.Equal(t, []string{}, shared.Tags)

	private := networkFrom(networkWithExt{Network: networks.Network{ID: "n-2", Name: "internal", Tags: []string{"lab"}}}, "p-1")
	assert.False(t, private.IsShared)
	assert.Nil(t, private.MTU)
	require.NotNil(t, private.Project)
	assert.Equal(t, "p-1", *private.Project)
	assert.Equal(t, []string{"lab"}, private.Tags)
}

func TestQuotaMappers(t *testing.T) {
	cq := computeQuotaFrom(&quotasets.QuotaSet{Cores: 20, Instances: -1, RAM: 51200}, "p-1")
	assert.Equal(t, "p-1", cq.Project)
	assert.Equal(t, model.ServiceTypeCompute, cq.Type)
	assert.Equal(t, 20, *cq.Cores)
	assert.Nil(t, cq.Instances)
	assert.Equal(t, 51200, *cq.RAM)
	assert.False(t, cq.PerUser)

	bq := blockStorageQuotaFrom(&bsquotasets.QuotaSet{Gigabytes: 1000, PerVolumeGigabytes: -1, Volumes: 0}, "p-1")
	assert.Equal(t, model.ServiceTypeBlockStorage, bq.Type)
	assert.Equal(t, 1000, *bq.Gigabytes)
	assert.Equal(t, -1, *bq.PerVolumeGigabytes)
	require.NotNil(t, bq.Volumes)
	assert.Equal(t, 0, *bq.Volumes)

	nq := networkQuotaFrom(&quotas.Quota{FloatingIP: 5, Network: 10, Port: 100, SecurityGroup: 10, SecurityGroupRule: -1}, "p-1")
	assert.Equal(t, model.ServiceTypeNetwork, nq.Type)
	assert.Equal(t, 5, *nq.PublicIPs)
	assert.Equal(t, 10, *nq.Networks)
	assert.Equal(t, 100, *nq.Ports)
	assert.Equal(t, -1, *nq.SecurityGroupRules)
}

func snapshotFor(project string, fl []model.FlavorCreateExtended, nets []model.NetworkCreateExtended) regionSnapshot {
	return regionSnapshot{
		identityEndpoint:     "https://keystone.example.org/v3",
		computeEndpoint:      "https://nova.example.org/v2.1",
		blockStorageEndpoint: "https://cinder.example.org/v3",
		networkEndpoint:      "https://neutron.example.org",
		flavors:              fl,
		networks:             nets,
		computeQuota:         &model.ComputeQuotaCreateExtended{ComputeQuota: model.NewComputeQuota(), Project: project},
		blockStorageQuota:    &model.BlockStorageQuotaCreateExtended{BlockStorageQuota: model.NewBlockStorageQuota(), Project: project},
		networkQuota:         &model.NetworkQuotaCreateExtended{NetworkQuota: model.NewNetworkQuota(), Project: project},
	}
}

func TestMergeRegion(t *testing.T) {
	tiny := model.FlavorCreateExtended{Flavor: model.Flavor{Name: "tiny", UUID: "f-1", IsPublic: true}}
	gpu := func(project string) model.FlavorCreateExtended {
		return model.FlavorCreateExtended{Flavor: model.Flavor{Name: "gpu", UUID: "f-2"}, Projects: []string{project}}
	}
	shared := model.NetworkCreateExtended{Network: model.Network{Name: "public", UUID: "n-1", IsShared: true}}

	r := model.RegionCreateExtended{Region: model.NewRegion("RegionOne")}
	mergeRegion(&r, snapshotFor("p-1", []model.FlavorCreateExtended{tiny, gpu("p-1")}, []model.NetworkCreateExtended{shared}))
	mergeRegion(&r, snapshotFor("p-2", []model.FlavorCreateExtended{tiny, gpu("p-2")}, []model.NetworkCreateExtended{shared}))

	require.Len(t, r.IdentityServices, 1)
	assert.Equal(t, model.ServiceNameKeystone, r.IdentityServices[0].Name)

	require.Len(t, r.ComputeServices, 1)
	c := r.ComputeServices[0]
	assert.Equal(t, model.ServiceNameNova, c.Name)
	assert.Equal(t, "https://nova.example.org/v2.1", c.Endpoint)
	require.Len(t, c.Flavors, 2)
	assert.Empty(t, c.Flavors[0].Projects)
	assert.Equal(t, []string{"p-1", "p-2"}, c.Flavors[1].Projects)
	assert.Len(t, c.Quotas, 2)

	require.Len(t, r.BlockStorageServices, 1)
	assert.Len(t, r.BlockStorageServices[0].Quotas, 2)

	require.Len(t, r.NetworkServices, 1)
	assert.Len(t, r.NetworkServices[0].Networks, 1)
	assert.Len(t, r.NetworkServices[0].Quotas, 2)
}

func TestMergeRegion_ComputeOnly(t *testing.T) {
	r := model.RegionCreateExtended{Region: model.NewRegion("RegionOne")}
	mergeRegion(&r, regionSnapshot{computeEndpoint: "https://nova.example.org/v2.1"})

	assert.Len(t, r.ComputeServices, 1)
	assert.Empty(t, r.IdentityServices)
	assert.Empty(t, r.BlockStorageServices)
	assert.Empty(t, r.NetworkServices)
}

func TestRestrictProjects(t *testing.T) {
	other := "p-other"
	mine := "p-1"
	p := model.ProviderCreateExtended{
		Provider: model.NewProvider("openstack-1", model.ProviderTypeOpenStack),
		Projects: []model.Project{{Name: "one", UUID: "p-1"}},
		Regions: []model.RegionCreateExtended{{
			Region: model.NewRegion("RegionOne"),
			ComputeServices: []model.ComputeServiceCreateExtended{{
				Flavors: []model.FlavorCreateExtended{
					{Flavor: model.Flavor{UUID: "f-1", IsPublic: true}},
					{Flavor: model.Flavor{UUID: "f-2"}, Projects: []string{"p-1", "p-other"}},
					{Flavor: model.Flavor{UUID: "f-3"}, Projects: []string{"p-other"}},
				},
				Images: []model.ImageCreateExtended{
					{Image: model.Image{UUID: "i-1"}, Projects: []string{"p-other"}},
					{Image: model.Image{UUID: "i-2"}, Projects: []string{"p-1"}},
				},
			}},
			NetworkServices: []model.NetworkServiceCreateExtended{{
				Networks: []model.NetworkCreateExtended{
					{Network: model.Network{UUID: "n-1", IsShared: true}},
					{Network: model.Network{UUID: "n-2"}, Project: &mine},
					{Network: model.Network{UUID: "n-3"}, Project: &other},
				},
			}},
		}},
	}

	restrictProjects(&p)

	c := p.Regions[0].ComputeServices[0]
	require.Len(t, c.Flavors, 2)
	assert.Equal(t, "f-1", c.Flavors[0].UUID)
	assert.Equal(t, []string{"p-1"}, c.Flavors[1].Projects)
	require.Len(t, c.Images, 1)
	assert.Equal(t, "i-2", c.Images[0].UUID)

	nets := p.Regions[0].NetworkServices[0].Networks
	require.Len(t, nets, 2)
	assert.Equal(t, "n-1", nets[0].UUID)
	assert.Equal(t, "n-2", nets[1].UUID)
}

func TestOptional(t *testing.T) {
	assert.Nil(t, optional(""))
	assert.Nil(t, optional(0))
	assert.Equal(t, "x", *optional("x"))
	assert.Nil(t, limit(-1))
	assert.Equal(t, 0, *limit(0))
}
