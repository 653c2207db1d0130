package core

import (
	"github.com/go-playground/validator/v10"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

// cruds groups the storage operations of every entity so managers and the
// reconciliation routines share one set.
type cruds struct {
	providers     *CRUD[model.Provider]
	regions       *CRUD[model.Region]
	locations     *CRUD[model.Location]
	projects      *CRUD[model.Project]
	flavors       *CRUD[model.Flavor]
	images        *CRUD[model.Image]
	networks      *CRUD[model.Network]
	bsQuotas      *CRUD[model.BlockStorageQuota]
	computeQuotas *CRUD[model.ComputeQuota]
	networkQuotas *CRUD[model.NetworkQuota]
	services      map[string]*CRUD[model.Service]
	slas          *CRUD[model.SLA]
	idps          *CRUD[model.IdentityProvider]
	userGroups    *CRUD[model.UserGroup]
}

func newCRUDs(v *validator.Validate) *cruds {
	return &cruds{
		providers:     NewCRUD(model.LabelProvider, "Provider", providerFields, v),
		regions:       NewCRUD(model.LabelRegion, "Region", regionFields, v),
		locations:     NewCRUD(model.LabelLocation, "Location", locationFields, v),
		projects:      NewCRUD(model.LabelProject, "Project", projectFields, v),
		flavors:       NewCRUD(model.LabelFlavor, "Flavor", flavorFields, v),
		images:        NewCRUD(model.LabelImage, "Image", imageFields, v),
		networks:      NewCRUD(model.LabelNetwork, "Network", networkFields, v),
		bsQuotas:      NewCRUD(model.LabelBlockStorageQuota, "Block Storage Quota", blockStorageQuotaFields, v),
		computeQuotas: NewCRUD(model.LabelComputeQuota, "Compute Quota", computeQuotaFields, v),
		networkQuotas: NewCRUD(model.LabelNetworkQuota, "Network Quota", networkQuotaFields, v),
		services: map[string]*CRUD[model.Service]{
			model.ServiceTypeBlockStorage: NewCRUD(model.LabelBlockStorageService, "Block Storage Service", serviceFields, v),
			model.ServiceTypeCompute:      NewCRUD(model.LabelComputeService, "Compute Service", serviceFields, v),
			model.ServiceTypeIdentity:     NewCRUD(model.LabelIdentityService, "Identity Service", serviceFields, v),
			model.ServiceTypeNetwork:      NewCRUD(model.LabelNetworkService, "Network Service", serviceFields, v),
		},
		slas:       NewCRUD(model.LabelSLA, "SLA", slaFields, v),
		idps:       NewCRUD(model.LabelIdentityProvider, "Identity Provider", identityProviderFields, v),
		userGroups: NewCRUD(model.LabelUserGroup, "User Group", userGroupFields, v),
	}
}

// Services aggregates the managers of every registry collection.
type Services struct {
	Providers            *ProviderService
	Regions              *RegionService
	Locations            *LocationService
	Projects             *ProjectService
	Flavors              *FlavorService
	Images               *ImageService
	Networks             *NetworkService
	BlockStorageQuotas   *QuotaService[model.BlockStorageQuota, model.BlockStorageQuotaUpdate]
	ComputeQuotas        *QuotaService[model.ComputeQuota, model.ComputeQuotaUpdate]
	NetworkQuotas        *QuotaService[model.NetworkQuota, model.NetworkQuotaUpdate]
	BlockStorageServices *CatalogService
	ComputeServices      *CatalogService
	IdentityServices     *CatalogService
	NetworkServices      *CatalogService
	SLAs                 *SLAService
	IdentityProviders    *IdentityProviderService
	UserGroups           *UserGroupService

	store graph.Store
}

// NewServices builds every manager on top of store. observe may be nil.
func NewServices(store graph.Store, v *validator.Validate, observe SyncObserver) *Services {
	c := newCRUDs(v)
	return &Services{
		Providers:            NewProviderService(store, c, observe),
		Regions:              NewRegionService(store, c),
		Locations:            NewLocationService(store, c),
		Projects:             NewProjectService(store, c),
		Flavors:              NewFlavorService(store, c),
		Images:               NewImageService(store, c),
		Networks:             NewNetworkService(store, c),
		BlockStorageQuotas:   newBlockStorageQuotaService(store, c),
		ComputeQuotas:        newComputeQuotaService(store, c),
		NetworkQuotas:        newNetworkQuotaService(store, c),
		BlockStorageServices: NewCatalogService(store, c, model.ServiceTypeBlockStorage),
		ComputeServices:      NewCatalogService(store, c, model.ServiceTypeCompute),
		IdentityServices:     NewCatalogService(store, c, model.ServiceTypeIdentity),
		NetworkServices:      NewCatalogService(store, c, model.ServiceTypeNetwork),
		SLAs:                 NewSLAService(store, c),
		IdentityProviders:    NewIdentityProviderService(store, c),
		UserGroups:           NewUserGroupService(store, c),
		store:                store,
	}
}

// Store returns the graph store the services run on.
func (s *Services) Store() graph.Store { return s.store }
