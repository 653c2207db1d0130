package populate

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	bsquotasets "github.com/gophercloud/gophercloud/v2/openstack/blockstorage/v3/quotasets"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/flavors"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/quotasets"
	"github.com/gophercloud/gophercloud/v2/openstack/identity/v3/projects"
	"github.com/gophercloud/gophercloud/v2/openstack/image/v2/images"
	"github.com/gophercloud/gophercloud/v2/openstack/image/v2/members"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/external"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/mtu"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/quotas"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/networks"
	"github.com/rs/zerolog"

	"github.com/edvin/fedreg/internal/model"
)

// Discoverer builds the create-extended payload of a provider.
type Discoverer interface {
	Discover(ctx context.Context, p ProviderConfig) (model.ProviderCreateExtended, error)
}

// OpenStack discovers providers by inspecting every configured project with
// its application credential.
type OpenStack struct {
	Logger  zerolog.Logger
	Timeout time.Duration
}

func (o *OpenStack) Discover(ctx context.Context, p ProviderConfig) (model.ProviderCreateExtended, error) {
	out, err := p.skeleton()
	if err != nil {
		return out, err
	}

	for _, proj := range p.Projects {
		log := o.Logger.With().Str("provider", p.Name).Str("project", proj.ID).Logger()
		log.Info().Msg("connecting to openstack")

		client, err := o.authenticate(ctx, p.AuthURL, proj)
		if err != nil {
			return out, fmt.Errorf("authenticate project %s: %w", proj.ID, err)
		}

		identity, err := openstack.NewIdentityV3(client, gophercloud.EndpointOpts{})
		if err != nil {
			return out, fmt.Errorf("identity client: %w", err)
		}
		project, err := projects.Get(ctx, identity, proj.ID).Extract()
		if err != nil {
			return out, fmt.Errorf("get project %s: %w", proj.ID, err)
		}
		out.Projects = append(out.Projects, model.Project{
			Base: model.Base{Description: project.Description},
			Name: project.Name,
			UUID: project.ID,
		})

		for i := range out.Regions {
			snap, err := discoverRegion(ctx, client, out.Regions[i].Name, project.ID, p.AuthURL)
			if err != nil {
				return out, fmt.Errorf("region %s: %w", out.Regions[i].Name, err)
			}
			log.Debug().Str("region", out.Regions[i].Name).
				Int("flavors", len(snap.flavors)).
				Int("images", len(snap.images)).
				Int("networks", len(snap.networks)).
				Msg("region inspected")
			mergeRegion(&out.Regions[i], snap)
		}
	}

	restrictProjects(&out)
	return out, nil
}

func (o *OpenStack) authenticate(ctx context.Context, authURL string, proj ProjectConfig) (*gophercloud.ProviderClient, error) {
	ao := gophercloud.AuthOptions{
		IdentityEndpoint:            authURL,
		ApplicationCredentialID:     proj.ApplicationCredentialID,
		ApplicationCredentialSecret: proj.ApplicationCredentialSecret,
		AllowReauth:                 true,
	}
	client, err := openstack.NewClient(ao.IdentityEndpoint)
	if err != nil {
		return nil, err
	}
	timeout := o.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	client.HTTPClient = http.Client{Timeout: timeout}
	if err := openstack.Authenticate(ctx, client, ao); err != nil {
		return nil, err
	}
	return client, nil
}

// regionSnapshot is what one project sees of one region.
type regionSnapshot struct {
	identityEndpoint     string
	computeEndpoint      string
	blockStorageEndpoint string
	networkEndpoint      string

	flavors  []model.FlavorCreateExtended
	images   []model.ImageCreateExtended
	networks []model.NetworkCreateExtended

	computeQuota      *model.ComputeQuotaCreateExtended
	blockStorageQuota *model.BlockStorageQuotaCreateExtended
	networkQuota      *model.NetworkQuotaCreateExtended
}

func discoverRegion(ctx context.Context, client *gophercloud.ProviderClient, region, projectID, authURL string) (regionSnapshot, error) {
	snap := regionSnapshot{identityEndpoint: authURL}
	eo := gophercloud.EndpointOpts{Region: region}

	compute, err := openstack.NewComputeV2(client, eo)
	if err != nil {
		return snap, fmt.Errorf("compute client: %w", err)
	}
	snap.computeEndpoint = compute.Endpoint
	if snap.flavors, err = listFlavors(ctx, compute); err != nil {
		return snap, err
	}
	cq, err := quotasets.Get(ctx, compute, projectID).Extract()
	if err != nil {
		return snap, fmt.Errorf("compute quota: %w", err)
	}
	snap.computeQuota = computeQuotaFrom(cq, projectID)

	if image, err := openstack.NewImageV2(client, eo); err == nil {
		if snap.images, err = listImages(ctx, image); err != nil {
			return snap, err
		}
	}

	// Block storage and networking are optional in a region's catalog.
	if bs, err := openstack.NewBlockStorageV3(client, eo); err == nil {
		snap.blockStorageEndpoint = bs.Endpoint
		q, err := bsquotasets.Get(ctx, bs, projectID).Extract()
		if err != nil {
			return snap, fmt.Errorf("block storage quota: %w", err)
		}
		snap.blockStorageQuota = blockStorageQuotaFrom(q, projectID)
	}
	if nw, err := openstack.NewNetworkV2(client, eo); err == nil {
		snap.networkEndpoint = nw.Endpoint
		if snap.networks, err = listNetworks(ctx, nw, projectID); err != nil {
			return snap, err
		}
		q, err := quotas.Get(ctx, nw, projectID).Extract()
		if err != nil {
			return snap, fmt.Errorf("network quota: %w", err)
		}
		snap.networkQuota = networkQuotaFrom(q, projectID)
	}
	return snap, nil
}

func listFlavors(ctx context.Context, client *gophercloud.ServiceClient) ([]model.FlavorCreateExtended, error) {
	page, err := flavors.ListDetail(client, flavors.ListOpts{AccessType: flavors.AllAccess}).AllPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list flavors: %w", err)
	}
	all, err := flavors.ExtractFlavors(page)
	if err != nil {
		return nil, fmt.Errorf("list flavors: %w", err)
	}

	out := make([]model.FlavorCreateExtended, 0, len(all))
	for _, f := range all {
		var tenants []string
		if !f.IsPublic {
			page, err := flavors.ListAccesses(client, f.ID).AllPages(ctx)
			if err != nil {
				return nil, fmt.Errorf("flavor %s access: %w", f.ID, err)
			}
			access, err := flavors.ExtractAccesses(page)
			if err != nil {
				return nil, fmt.Errorf("flavor %s access: %w", f.ID, err)
			}
			for _, a := range access {
				tenants = append(tenants, a.TenantID)
			}
		}
		out = append(out, flavorFrom(f, tenants))
	}
	return out, nil
}

func flavorFrom(f flavors.Flavor, tenants []string) model.FlavorCreateExtended {
	out := model.FlavorCreateExtended{
		Flavor: model.Flavor{
			Base:      model.Base{Description: f.Description},
			Name:      f.Name,
			UUID:      f.ID,
			Disk:      f.Disk,
			IsPublic:  f.IsPublic,
			RAM:       f.RAM,
			VCPUs:     f.VCPUs,
			Swap:      f.Swap,
			Ephemeral: f.Ephemeral,
		},
		Projects: tenants,
	}
	spec := f.ExtraSpecs
	if n, err := strconv.Atoi(spec["gpu_number"]); err == nil {
		out.GPUs = n
	}
	out.GPUModel = optional(spec["gpu_model"])
	out.GPUVendor = optional(spec["gpu_vendor"])
	out.LocalStorage = optional(spec["aggregate_instance_extra_specs:local_storage"])
	out.Infiniband = strings.EqualFold(spec["infiniband"], "true")
	return out
}

func listImages(ctx context.Context, client *gophercloud.ServiceClient) ([]model.ImageCreateExtended, error) {
	page, err := images.List(client, images.ListOpts{}).AllPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	all, err := images.ExtractImages(page)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	out := make([]model.ImageCreateExtended, 0, len(all))
	for _, img := range all {
		var accepted []string
		if img.Visibility == images.ImageVisibilityShared {
			page, err := members.List(client, img.ID).AllPages(ctx)
			if err != nil {
				return nil, fmt.Errorf("image %s members: %w", img.ID, err)
			}
			list, err := members.ExtractMembers(page)
			if err != nil {
				return nil, fmt.Errorf("image %s members: %w", img.ID, err)
			}
			for _, m := range list {
				if m.Status == "accepted" {
					accepted = append(accepted, m.MemberID)
				}
			}
		}
		out = append(out, imageFrom(img, accepted))
	}
	return out, nil
}

// imageFrom maps a Glance image. Private and shared images belong to their
// owner and, for shared ones, to the members that accepted them.
func imageFrom(img images.Image, accepted []string) model.ImageCreateExtended {
	out := model.ImageCreateExtended{
		Image: model.Image{
			Name:     img.Name,
			UUID:     img.ID,
			IsPublic: true,
			Tags:     img.Tags,
		},
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	switch img.Visibility {
	case images.ImageVisibilityPrivate, images.ImageVisibilityShared:
		out.IsPublic = false
		out.Projects = append([]string{img.Owner}, accepted...)
	}

	prop := func(key string) string {
		s, _ := img.Properties[key].(string)
		return s
	}
	out.OSDistro = optional(prop("os_distro"))
	out.OSVersion = optional(prop("os_version"))
	out.Architecture = optional(prop("architecture"))
	out.KernelID = optional(prop("kernel_id"))
	out.CUDASupport = strings.EqualFold(prop("cuda_support"), "true")
	out.GPUDriver = strings.EqualFold(prop("gpu_driver"), "true")
	switch strings.ToLower(prop("os_type")) {
	case "linux":
		out.OSType = optional(model.ImageOSLinux)
	case "windows":
		out.OSType = optional(model.ImageOSWindows)
	case "macos":
		out.OSType = optional(model.ImageOSMacOS)
	}
	return out
}

type networkWithExt struct {
	networks.Network
	external.NetworkExternalExt
	mtu.NetworkMTUExt
}

func listNetworks(ctx context.Context, client *gophercloud.ServiceClient, projectID string) ([]model.NetworkCreateExtended, error) {
	page, err := networks.List(client, networks.ListOpts{}).AllPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	var all []networkWithExt
	if err := networks.ExtractNetworksInto(page, &all); err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}

	out := make([]model.NetworkCreateExtended, 0, len(all))
	for _, n := range all {
		// Only shared networks and the project's own are visible to it.
		if !n.Shared && n.ProjectID != projectID && n.TenantID != projectID {
			continue
		}
		out = append(out, networkFrom(n, projectID))
	}
	return out, nil
}

func networkFrom(n networkWithExt, projectID string) model.NetworkCreateExtended {
	out := model.NetworkCreateExtended{
		Network: model.Network{
			Base:             model.Base{Description: n.Description},
			Name:             n.Name,
			UUID:             n.ID,
			IsShared:         n.Shared,
			IsRouterExternal: n.External,
			Tags:             n.Tags,
		},
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if n.MTU > 0 {
		out.MTU = optional(n.MTU)
	}
	if !n.Shared {
		out.Project = optional(projectID)
	}
	return out
}

func computeQuotaFrom(q *quotasets.QuotaSet, projectID string) *model.ComputeQuotaCreateExtended {
	out := &model.ComputeQuotaCreateExtended{ComputeQuota: model.NewComputeQuota(), Project: projectID}
	out.Cores = limit(q.Cores)
	out.Instances = limit(q.Instances)
	out.RAM = limit(q.RAM)
	return out
}

func blockStorageQuotaFrom(q *bsquotasets.QuotaSet, projectID string) *model.BlockStorageQuotaCreateExtended {
	out := &model.BlockStorageQuotaCreateExtended{BlockStorageQuota: model.NewBlockStorageQuota(), Project: projectID}
	out.Gigabytes = &q.Gigabytes
	out.PerVolumeGigabytes = &q.PerVolumeGigabytes
	out.Volumes = &q.Volumes
	return out
}

func networkQuotaFrom(q *quotas.Quota, projectID string) *model.NetworkQuotaCreateExtended {
	out := &model.NetworkQuotaCreateExtended{NetworkQuota: model.NewNetworkQuota(), Project: projectID}
	out.PublicIPs = &q.FloatingIP
	out.Networks = &q.Network
	out.Ports = &q.Port
	out.SecurityGroups = &q.SecurityGroup
	out.SecurityGroupRules = &q.SecurityGroupRule
	return out
}

// mergeRegion folds what one project sees of a region into the payload.
// Services are created on first sight; flavors and images seen by several
// projects collect all of them.
func mergeRegion(r *model.RegionCreateExtended, s regionSnapshot) {
	if s.identityEndpoint != "" && len(r.IdentityServices) == 0 {
		r.IdentityServices = []model.Service{
			model.NewService(model.ServiceTypeIdentity, model.ServiceNameKeystone, s.identityEndpoint),
		}
	}

	if s.computeEndpoint != "" {
		if len(r.ComputeServices) == 0 {
			r.ComputeServices = []model.ComputeServiceCreateExtended{{
				Service: model.NewService(model.ServiceTypeCompute, model.ServiceNameNova, s.computeEndpoint),
			}}
		}
		c := &r.ComputeServices[0]
		c.Flavors = mergeFlavors(c.Flavors, s.flavors)
		c.Images = mergeImages(c.Images, s.images)
		if s.computeQuota != nil {
			c.Quotas = append(c.Quotas, *s.computeQuota)
		}
	}

	if s.blockStorageEndpoint != "" {
		if len(r.BlockStorageServices) == 0 {
			r.BlockStorageServices = []model.BlockStorageServiceCreateExtended{{
				Service: model.NewService(model.ServiceTypeBlockStorage, model.ServiceNameCinder, s.blockStorageEndpoint),
			}}
		}
		if s.blockStorageQuota != nil {
			r.BlockStorageServices[0].Quotas = append(r.BlockStorageServices[0].Quotas, *s.blockStorageQuota)
		}
	}

	if s.networkEndpoint != "" {
		if len(r.NetworkServices) == 0 {
			r.NetworkServices = []model.NetworkServiceCreateExtended{{
				Service: model.NewService(model.ServiceTypeNetwork, model.ServiceNameNeutron, s.networkEndpoint),
			}}
		}
		n := &r.NetworkServices[0]
		for _, net := range s.networks {
			if !slices.ContainsFunc(n.Networks, func(v model.NetworkCreateExtended) bool { return v.UUID == net.UUID }) {
				n.Networks = append(n.Networks, net)
			}
		}
		if s.networkQuota != nil {
			n.Quotas = append(n.Quotas, *s.networkQuota)
		}
	}
}

func mergeFlavors(cur, seen []model.FlavorCreateExtended) []model.FlavorCreateExtended {
	for _, f := range seen {
		i := slices.IndexFunc(cur, func(v model.FlavorCreateExtended) bool { return v.UUID == f.UUID })
		if i < 0 {
			cur = append(cur, f)
			continue
		}
		cur[i].Projects = union(cur[i].Projects, f.Projects)
	}
	return cur
}

func mergeImages(cur, seen []model.ImageCreateExtended) []model.ImageCreateExtended {
	for _, img := range seen {
		i := slices.IndexFunc(cur, func(v model.ImageCreateExtended) bool { return v.UUID == img.UUID })
		if i < 0 {
			cur = append(cur, img)
			continue
		}
		cur[i].Projects = union(cur[i].Projects, img.Projects)
	}
	return cur
}

// restrictProjects drops references to projects the provider does not list
// and the private items left without any project.
func restrictProjects(p *model.ProviderCreateExtended) {
	known := map[string]bool{}
	for _, proj := range p.Projects {
		known[proj.UUID] = true
	}
	keep := func(ids []string) []string {
		var out []string
		for _, id := range ids {
			if known[id] {
				out = append(out, id)
			}
		}
		return out
	}

	for i := range p.Regions {
		for j := range p.Regions[i].ComputeServices {
			c := &p.Regions[i].ComputeServices[j]
			c.Flavors = slices.DeleteFunc(c.Flavors, func(f model.FlavorCreateExtended) bool {
				return !f.IsPublic && len(keep(f.Projects)) == 0
			})
			for k := range c.Flavors {
				c.Flavors[k].Projects = keep(c.Flavors[k].Projects)
			}
			c.Images = slices.DeleteFunc(c.Images, func(img model.ImageCreateExtended) bool {
				return !img.IsPublic && len(keep(img.Projects)) == 0
			})
			for k := range c.Images {
				c.Images[k].Projects = keep(c.Images[k].Projects)
			}
		}
		for j := range p.Regions[i].NetworkServices {
			n := &p.Regions[i].NetworkServices[j]
			n.Networks = slices.DeleteFunc(n.Networks, func(net model.NetworkCreateExtended) bool {
				return net.Project != nil && !known[*net.Project]
			})
		}
	}
}

func union(a, b []string) []string {
	for _, v := range b {
		if !slices.Contains(a, v) {
			a = append(a, v)
		}
	}
	return a
}

func optional[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

// limit keeps a compute limit, dropping OpenStack's -1 for unlimited.
func limit(v int) *int {
	if v < 0 {
		return nil
	}
	return &v
}
