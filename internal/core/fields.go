package core

import (
	"time"

	"github.com/edvin/fedreg/internal/model"
	"github.com/edvin/fedreg/internal/query"
)

// Filterable and sortable attributes per entity. List-shaped attributes
// (support_emails, tags) are not declared and therefore never filterable.

func baseFields[T model.Entity](desc func(T) string) []query.Field[T] {
	return []query.Field[T]{
		query.String("uid", func(v T) string { return v.GetUID() }),
		query.String("description", desc),
	}
}

var providerFields = query.Fields[model.Provider](append(
	baseFields(func(v model.Provider) string { return v.Description }),
	query.String("name", func(v model.Provider) string { return v.Name }),
	query.String("type", func(v model.Provider) string { return v.Type }),
	query.String("status", func(v model.Provider) string { return v.Status }),
	query.Bool("is_public", func(v model.Provider) bool { return v.IsPublic }),
))

var regionFields = query.Fields[model.Region](append(
	baseFields(func(v model.Region) string { return v.Description }),
	query.String("name", func(v model.Region) string { return v.Name }),
	query.Float("overbooking_cpu", func(v model.Region) float64 { return v.OverbookingCPU }),
	query.Float("overbooking_ram", func(v model.Region) float64 { return v.OverbookingRAM }),
	query.Float("bandwidth_in", func(v model.Region) float64 { return v.BandwidthIn }),
	query.Float("bandwidth_out", func(v model.Region) float64 { return v.BandwidthOut }),
))

var locationFields = query.Fields[model.Location](append(
	baseFields(func(v model.Location) string { return v.Description }),
	query.String("site", func(v model.Location) string { return v.Site }),
	query.String("country", func(v model.Location) string { return v.Country }),
	query.FloatPtr("latitude", func(v model.Location) *float64 { return v.Latitude }),
	query.FloatPtr("longitude", func(v model.Location) *float64 { return v.Longitude }),
))

var projectFields = query.Fields[model.Project](append(
	baseFields(func(v model.Project) string { return v.Description }),
	query.String("name", func(v model.Project) string { return v.Name }),
	query.String("uuid", func(v model.Project) string { return v.UUID }),
))

var flavorFields = query.Fields[model.Flavor](append(
	baseFields(func(v model.Flavor) string { return v.Description }),
	query.String("name", func(v model.Flavor) string { return v.Name }),
	query.String("uuid", func(v model.Flavor) string { return v.UUID }),
	query.Int("disk", func(v model.Flavor) int { return v.Disk }),
	query.Bool("is_public", func(v model.Flavor) bool { return v.IsPublic }),
	query.Int("ram", func(v model.Flavor) int { return v.RAM }),
	query.Int("vcpus", func(v model.Flavor) int { return v.VCPUs }),
	query.Int("swap", func(v model.Flavor) int { return v.Swap }),
	query.Int("ephemeral", func(v model.Flavor) int { return v.Ephemeral }),
	query.Bool("infiniband", func(v model.Flavor) bool { return v.Infiniband }),
	query.Int("gpus", func(v model.Flavor) int { return v.GPUs }),
	query.StringPtr("gpu_model", func(v model.Flavor) *string { return v.GPUModel }),
	query.StringPtr("gpu_vendor", func(v model.Flavor) *string { return v.GPUVendor }),
	query.StringPtr("local_storage", func(v model.Flavor) *string { return v.LocalStorage }),
))

var imageFields = query.Fields[model.Image](append(
	baseFields(func(v model.Image) string { return v.Description }),
	query.String("name", func(v model.Image) string { return v.Name }),
	query.String("uuid", func(v model.Image) string { return v.UUID }),
	query.StringPtr("os_type", func(v model.Image) *string { return v.OSType }),
	query.StringPtr("os_distro", func(v model.Image) *string { return v.OSDistro }),
	query.StringPtr("os_version", func(v model.Image) *string { return v.OSVersion }),
	query.StringPtr("architecture", func(v model.Image) *string { return v.Architecture }),
	query.StringPtr("kernel_id", func(v model.Image) *string { return v.KernelID }),
	query.Bool("cuda_support", func(v model.Image) bool { return v.CUDASupport }),
	query.Bool("gpu_driver", func(v model.Image) bool { return v.GPUDriver }),
	query.Bool("is_public", func(v model.Image) bool { return v.IsPublic }),
))

var networkFields = query.Fields[model.Network](append(
	baseFields(func(v model.Network) string { return v.Description }),
	query.String("name", func(v model.Network) string { return v.Name }),
	query.String("uuid", func(v model.Network) string { return v.UUID }),
	query.Bool("is_shared", func(v model.Network) bool { return v.IsShared }),
	query.Bool("is_router_external", func(v model.Network) bool { return v.IsRouterExternal }),
	query.Bool("is_default", func(v model.Network) bool { return v.IsDefault }),
	query.IntPtr("mtu", func(v model.Network) *int { return v.MTU }),
	query.StringPtr("proxy_host", func(v model.Network) *string { return v.ProxyHost }),
	query.StringPtr("proxy_user", func(v model.Network) *string { return v.ProxyUser }),
))

func quotaFields[T model.Entity](base func(T) model.QuotaBase, extra ...query.Field[T]) query.Fields[T] {
	fields := append(baseFields(func(v T) string { return base(v).Description }),
		query.String("type", func(v T) string { return base(v).Type }),
		query.Bool("per_user", func(v T) bool { return base(v).PerUser }),
		query.Bool("usage", func(v T) bool { return base(v).Usage }),
	)
	return append(fields, extra...)
}

var blockStorageQuotaFields = quotaFields(
	func(v model.BlockStorageQuota) model.QuotaBase { return v.QuotaBase },
	query.IntPtr("gigabytes", func(v model.BlockStorageQuota) *int { return v.Gigabytes }),
	query.IntPtr("per_volume_gigabytes", func(v model.BlockStorageQuota) *int { return v.PerVolumeGigabytes }),
	query.IntPtr("volumes", func(v model.BlockStorageQuota) *int { return v.Volumes }),
)

var computeQuotaFields = quotaFields(
	func(v model.ComputeQuota) model.QuotaBase { return v.QuotaBase },
	query.IntPtr("cores", func(v model.ComputeQuota) *int { return v.Cores }),
	query.IntPtr("instances", func(v model.ComputeQuota) *int { return v.Instances }),
	query.IntPtr("ram", func(v model.ComputeQuota) *int { return v.RAM }),
)

var networkQuotaFields = quotaFields(
	func(v model.NetworkQuota) model.QuotaBase { return v.QuotaBase },
	query.IntPtr("public_ips", func(v model.NetworkQuota) *int { return v.PublicIPs }),
	query.IntPtr("networks", func(v model.NetworkQuota) *int { return v.Networks }),
	query.IntPtr("ports", func(v model.NetworkQuota) *int { return v.Ports }),
	query.IntPtr("security_groups", func(v model.NetworkQuota) *int { return v.SecurityGroups }),
	query.IntPtr("security_group_rules", func(v model.NetworkQuota) *int { return v.SecurityGroupRules }),
)

var serviceFields = query.Fields[model.Service](append(
	baseFields(func(v model.Service) string { return v.Description }),
	query.String("endpoint", func(v model.Service) string { return v.Endpoint }),
	query.String("type", func(v model.Service) string { return v.Type }),
	query.String("name", func(v model.Service) string { return v.Name }),
))

var slaFields = query.Fields[model.SLA](append(
	baseFields(func(v model.SLA) string { return v.Description }),
	query.String("doc_uuid", func(v model.SLA) string { return v.DocUUID }),
	query.Date("start_date", func(v model.SLA) time.Time { return v.StartDate.Time }),
	query.Date("end_date", func(v model.SLA) time.Time { return v.EndDate.Time }),
))

var identityProviderFields = query.Fields[model.IdentityProvider](append(
	baseFields(func(v model.IdentityProvider) string { return v.Description }),
	query.String("endpoint", func(v model.IdentityProvider) string { return v.Endpoint }),
	query.String("group_claim", func(v model.IdentityProvider) string { return v.GroupClaim }),
))

var userGroupFields = query.Fields[model.UserGroup](append(
	baseFields(func(v model.UserGroup) string { return v.Description }),
	query.String("name", func(v model.UserGroup) string { return v.Name }),
))
