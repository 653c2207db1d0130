package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Create-extended payloads describe a provider together with everything it
// owns. They are accepted by POST and PUT on /providers and produced by the
// population tool.

type SLACreateExtended struct {
	SLA
	Project string `json:"project" validate:"required"`
}

type UserGroupCreateExtended struct {
	UserGroup
	SLA SLACreateExtended `json:"sla" validate:"required"`
}

type IdentityProviderCreateExtended struct {
	IdentityProvider
	Relationship AuthMethod                `json:"relationship" validate:"required"`
	UserGroups   []UserGroupCreateExtended `json:"user_groups" validate:"min=1,dive"`
}

type FlavorCreateExtended struct {
	Flavor
	Projects []string `json:"projects"`
}

func (f *FlavorCreateExtended) UnmarshalJSON(b []byte) error {
	type plain FlavorCreateExtended
	p := plain{Flavor: Flavor{IsPublic: true}}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*f = FlavorCreateExtended(p)
	return nil
}

type ImageCreateExtended struct {
	Image
	Projects []string `json:"projects"`
}

func (i *ImageCreateExtended) UnmarshalJSON(b []byte) error {
	type plain ImageCreateExtended
	p := plain{Image: Image{IsPublic: true, Tags: []string{}}}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*i = ImageCreateExtended(p)
	return nil
}

type NetworkCreateExtended struct {
	Network
	Project *string `json:"project"`
}

func (n *NetworkCreateExtended) UnmarshalJSON(b []byte) error {
	type plain NetworkCreateExtended
	p := plain{Network: Network{IsShared: true, Tags: []string{}}}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*n = NetworkCreateExtended(p)
	return nil
}

type BlockStorageQuotaCreateExtended struct {
	BlockStorageQuota
	Project string `json:"project" validate:"required"`
}

func (q *BlockStorageQuotaCreateExtended) UnmarshalJSON(b []byte) error {
	type plain BlockStorageQuotaCreateExtended
	p := plain{BlockStorageQuota: NewBlockStorageQuota()}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*q = BlockStorageQuotaCreateExtended(p)
	return nil
}

type ComputeQuotaCreateExtended struct {
	ComputeQuota
	Project string `json:"project" validate:"required"`
}

func (q *ComputeQuotaCreateExtended) UnmarshalJSON(b []byte) error {
	type plain ComputeQuotaCreateExtended
	p := plain{ComputeQuota: NewComputeQuota()}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*q = ComputeQuotaCreateExtended(p)
	return nil
}

type NetworkQuotaCreateExtended struct {
	NetworkQuota
	Project string `json:"project" validate:"required"`
}

func (q *NetworkQuotaCreateExtended) UnmarshalJSON(b []byte) error {
	type plain NetworkQuotaCreateExtended
	p := plain{NetworkQuota: NewNetworkQuota()}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*q = NetworkQuotaCreateExtended(p)
	return nil
}

type BlockStorageServiceCreateExtended struct {
	Service
	Quotas []BlockStorageQuotaCreateExtended `json:"quotas" validate:"dive"`
}

type ComputeServiceCreateExtended struct {
	Service
	Flavors []FlavorCreateExtended       `json:"flavors" validate:"dive"`
	Images  []ImageCreateExtended        `json:"images" validate:"dive"`
	Quotas  []ComputeQuotaCreateExtended `json:"quotas" validate:"dive"`
}

type NetworkServiceCreateExtended struct {
	Service
	Networks []NetworkCreateExtended      `json:"networks" validate:"dive"`
	Quotas   []NetworkQuotaCreateExtended `json:"quotas" validate:"dive"`
}

type RegionCreateExtended struct {
	Region
	Location             *Location                           `json:"location"`
	BlockStorageServices []BlockStorageServiceCreateExtended `json:"block_storage_services" validate:"dive"`
	ComputeServices      []ComputeServiceCreateExtended      `json:"compute_services" validate:"dive"`
	IdentityServices     []Service                           `json:"identity_services" validate:"dive"`
	NetworkServices      []NetworkServiceCreateExtended      `json:"network_services" validate:"dive"`
}

func (r *RegionCreateExtended) UnmarshalJSON(b []byte) error {
	type plain RegionCreateExtended
	p := plain{Region: NewRegion("")}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = RegionCreateExtended(p)
	return nil
}

type ProviderCreateExtended struct {
	Provider
	Projects          []Project                        `json:"projects" validate:"dive"`
	IdentityProviders []IdentityProviderCreateExtended `json:"identity_providers" validate:"dive"`
	Regions           []RegionCreateExtended           `json:"regions" validate:"dive"`
}

func (p *ProviderCreateExtended) UnmarshalJSON(b []byte) error {
	type plain ProviderCreateExtended
	v := plain{Provider: NewProvider("", "")}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = ProviderCreateExtended(v)
	return nil
}

// Check reports every structural inconsistency of the payload: duplicated
// natural keys, projects referenced but not declared by the provider, SLAs or
// projects shared between user groups, visibility rules of flavors, images and
// networks, and more than one quota of a kind per project.
func (p ProviderCreateExtended) Check() error {
	var errs *multierror.Error
	add := func(err error) { errs = multierror.Append(errs, err) }

	projects := collect(p.Projects, func(v Project) string { return v.UUID })
	add(findDuplicates(projects, "uuid"))
	add(findDuplicates(collect(p.Projects, func(v Project) string { return v.Name }), "name"))

	add(findDuplicates(collect(p.IdentityProviders, func(v IdentityProviderCreateExtended) string { return v.Endpoint }), "endpoint"))
	seenSLAs := map[string]bool{}
	seenProjects := map[string]bool{}
	for _, idp := range p.IdentityProviders {
		add(idp.check())
		for _, ug := range idp.UserGroups {
			if seenSLAs[ug.SLA.DocUUID] {
				add(fmt.Errorf("SLA %s already used by another user group", ug.SLA.DocUUID))
			}
			seenSLAs[ug.SLA.DocUUID] = true
			if seenProjects[ug.SLA.Project] {
				add(fmt.Errorf("Project %s already used by another SLA", ug.SLA.Project))
			}
			seenProjects[ug.SLA.Project] = true
			add(projectInProvider(ug.SLA.Project, projects, "SLA "+ug.SLA.DocUUID))
		}
	}

	add(findDuplicates(collect(p.Regions, func(v RegionCreateExtended) string { return v.Name }), "name"))
	for _, r := range p.Regions {
		add(r.check(projects))
	}

	if errs == nil {
		return nil
	}
	errs.ErrorFormat = formatErrors
	return errs.ErrorOrNil()
}

func (i IdentityProviderCreateExtended) check() error {
	var errs *multierror.Error
	if len(i.UserGroups) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("Identity provider's user group list can't be empty"))
	}
	errs = multierror.Append(errs, findDuplicates(collect(i.UserGroups, func(v UserGroupCreateExtended) string { return v.Name }), "name"))
	return errs.ErrorOrNil()
}

func (r RegionCreateExtended) check(projects []string) error {
	var errs *multierror.Error
	add := func(err error) { errs = multierror.Append(errs, err) }

	endpoint := func(s Service) string { return s.Endpoint }
	add(findDuplicates(collect(r.BlockStorageServices, func(v BlockStorageServiceCreateExtended) string { return v.Endpoint }), "endpoint"))
	add(findDuplicates(collect(r.ComputeServices, func(v ComputeServiceCreateExtended) string { return v.Endpoint }), "endpoint"))
	add(findDuplicates(collect(r.IdentityServices, endpoint), "endpoint"))
	add(findDuplicates(collect(r.NetworkServices, func(v NetworkServiceCreateExtended) string { return v.Endpoint }), "endpoint"))

	for _, s := range r.BlockStorageServices {
		add(checkQuotas(s.Quotas, func(q BlockStorageQuotaCreateExtended) (string, QuotaBase) { return q.Project, q.QuotaBase }, projects, "Block Storage quota"))
	}
	for _, s := range r.ComputeServices {
		add(findDuplicates(collect(s.Flavors, func(v FlavorCreateExtended) string { return v.UUID }), "uuid"))
		add(findDuplicates(collect(s.Flavors, func(v FlavorCreateExtended) string { return v.Name }), "name"))
		add(findDuplicates(collect(s.Images, func(v ImageCreateExtended) string { return v.UUID }), "uuid"))
		add(findDuplicates(collect(s.Images, func(v ImageCreateExtended) string { return v.Name }), "name"))
		for _, f := range s.Flavors {
			add(f.check())
			for _, proj := range f.Projects {
				add(projectInProvider(proj, projects, "Flavor "+f.Name))
			}
		}
		for _, i := range s.Images {
			add(i.check())
			for _, proj := range i.Projects {
				add(projectInProvider(proj, projects, "Image "+i.Name))
			}
		}
		add(checkQuotas(s.Quotas, func(q ComputeQuotaCreateExtended) (string, QuotaBase) { return q.Project, q.QuotaBase }, projects, "Compute quota"))
	}
	for _, s := range r.NetworkServices {
		add(findDuplicates(collect(s.Networks, func(v NetworkCreateExtended) string { return v.UUID }), "uuid"))
		for _, n := range s.Networks {
			add(n.check())
			if n.Project != nil {
				add(projectInProvider(*n.Project, projects, "Network "+n.Name))
			}
		}
		add(checkQuotas(s.Quotas, func(q NetworkQuotaCreateExtended) (string, QuotaBase) { return q.Project, q.QuotaBase }, projects, "Network quota"))
	}
	return errs.ErrorOrNil()
}

func (f FlavorCreateExtended) check() error {
	if err := findDuplicates(f.Projects, ""); err != nil {
		return err
	}
	if !f.IsPublic && len(f.Projects) == 0 {
		return fmt.Errorf("Projects are mandatory for private flavors")
	}
	if f.IsPublic && len(f.Projects) > 0 {
		return fmt.Errorf("Public flavors do not have linked projects")
	}
	return nil
}

func (i ImageCreateExtended) check() error {
	if err := findDuplicates(i.Projects, ""); err != nil {
		return err
	}
	if !i.IsPublic && len(i.Projects) == 0 {
		return fmt.Errorf("Projects are mandatory for private images")
	}
	if i.IsPublic && len(i.Projects) > 0 {
		return fmt.Errorf("Public images do not have linked projects")
	}
	return nil
}

func (n NetworkCreateExtended) check() error {
	if !n.IsShared && n.Project == nil {
		return fmt.Errorf("Projects is mandatory for private networks")
	}
	if n.IsShared && n.Project != nil && *n.Project != "" {
		return fmt.Errorf("Shared networks do not have a linked project")
	}
	return nil
}

// checkQuotas verifies quota projects belong to the provider and that each
// project has at most one project-wide, one per-user and one usage quota.
func checkQuotas[Q any](quotas []Q, split func(Q) (string, QuotaBase), projects []string, parent string) error {
	var errs *multierror.Error
	counts := map[string]*[3]int{}
	for _, q := range quotas {
		project, base := split(q)
		errs = multierror.Append(errs, projectInProvider(project, projects, parent))
		if project == "" {
			continue
		}
		c, ok := counts[project]
		if !ok {
			c = &[3]int{}
			counts[project] = c
		}
		switch {
		case base.Usage:
			c[2]++
		case base.PerUser:
			c[1]++
		default:
			c[0]++
		}
		if c[0] > 1 || c[1] > 1 || c[2] > 1 {
			errs = multierror.Append(errs, fmt.Errorf("Multiple quotas on same project %s", project))
			c[0], c[1], c[2] = 0, 0, 0
		}
	}
	return errs.ErrorOrNil()
}

func projectInProvider(project string, projects []string, parent string) error {
	if project == "" {
		return nil
	}
	for _, p := range projects {
		if p == project {
			return nil
		}
	}
	return fmt.Errorf("%s's project %s not in this provider: [%s]", parent, project, strings.Join(projects, ", "))
}

func findDuplicates(values []string, attr string) error {
	seen := map[string]bool{}
	var dupes []string
	for _, v := range values {
		if seen[v] {
			dupes = append(dupes, v)
		}
		seen[v] = true
	}
	if len(dupes) == 0 {
		return nil
	}
	if attr == "" {
		return fmt.Errorf("There are multiple identical items: %s", strings.Join(dupes, ","))
	}
	return fmt.Errorf("There are multiple items with identical %s: %s", attr, strings.Join(dupes, ","))
}

func collect[T any](items []T, key func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, key(it))
	}
	return out
}

func formatErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
