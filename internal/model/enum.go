package model

// Provider types.
const (
	ProviderTypeOpenStack  = "openstack"
	ProviderTypeKubernetes = "kubernetes"
)

// Provider statuses.
const (
	ProviderStatusActive      = "active"
	ProviderStatusDeprecated  = "deprecated"
	ProviderStatusMaintenance = "maintenance"
	ProviderStatusLimited     = "limited"
)

// Service types.
const (
	ServiceTypeBlockStorage = "block-storage"
	ServiceTypeCompute      = "compute"
	ServiceTypeIdentity     = "identity"
	ServiceTypeNetwork      = "network"
)

// Service names.
const (
	ServiceNameCinder   = "openstack-cinder"
	ServiceNameNova     = "openstack-nova"
	ServiceNameKeystone = "openstack-keystone"
	ServiceNameNeutron  = "openstack-neutron"
)

// Image operating systems.
const (
	ImageOSLinux   = "Linux"
	ImageOSWindows = "Windows"
	ImageOSMacOS   = "MacOS"
)

// ServiceNames maps each service type to the names it accepts.
var ServiceNames = map[string][]string{
	ServiceTypeBlockStorage: {ServiceNameCinder},
	ServiceTypeCompute:      {ServiceNameNova},
	ServiceTypeIdentity:     {ServiceNameKeystone},
	ServiceTypeNetwork:      {ServiceNameNeutron},
}

// ServiceLabels maps each service type to its node label.
var ServiceLabels = map[string]string{
	ServiceTypeBlockStorage: LabelBlockStorageService,
	ServiceTypeCompute:      LabelComputeService,
	ServiceTypeIdentity:     LabelIdentityService,
	ServiceTypeNetwork:      LabelNetworkService,
}
