package core

import (
	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

// Relationships of the registry graph. Out bounds the targets of one source
// node, In bounds the sources of one target node.
var (
	relProviderProjects = graph.Relation{Type: "BOOK_PROJECT", From: model.LabelProvider, To: model.LabelProject, OutCard: graph.AnyNumber, InCard: graph.ExactlyOne}
	relProviderRegions  = graph.Relation{Type: "DIVIDED_INTO", From: model.LabelProvider, To: model.LabelRegion, OutCard: graph.AnyNumber, InCard: graph.ExactlyOne}
	relProviderIdPs     = graph.Relation{Type: "ALLOW_AUTH_THROUGH", From: model.LabelProvider, To: model.LabelIdentityProvider, OutCard: graph.AnyNumber, InCard: graph.AnyNumber}

	relRegionLocation = graph.Relation{Type: "LOCATED_AT", From: model.LabelRegion, To: model.LabelLocation, OutCard: graph.OptionalOne, InCard: graph.AnyNumber}

	relRegionBlockStorage = supply(model.LabelBlockStorageService)
	relRegionCompute      = supply(model.LabelComputeService)
	relRegionIdentity     = supply(model.LabelIdentityService)
	relRegionNetwork      = supply(model.LabelNetworkService)

	relBlockStorageQuotaProject = applyTo(model.LabelBlockStorageQuota, model.LabelProject)
	relComputeQuotaProject      = applyTo(model.LabelComputeQuota, model.LabelProject)
	relNetworkQuotaProject      = applyTo(model.LabelNetworkQuota, model.LabelProject)
	relBlockStorageQuotaService = applyTo(model.LabelBlockStorageQuota, model.LabelBlockStorageService)
	relComputeQuotaService      = applyTo(model.LabelComputeQuota, model.LabelComputeService)
	relNetworkQuotaService      = applyTo(model.LabelNetworkQuota, model.LabelNetworkService)

	relServiceFlavors  = graph.Relation{Type: "AVAILABLE_VM_FLAVOR", From: model.LabelComputeService, To: model.LabelFlavor, OutCard: graph.AnyNumber, InCard: graph.AtLeastOne}
	relServiceImages   = graph.Relation{Type: "AVAILABLE_VM_IMAGE", From: model.LabelComputeService, To: model.LabelImage, OutCard: graph.AnyNumber, InCard: graph.AtLeastOne}
	relServiceNetworks = graph.Relation{Type: "AVAILABLE_NETWORK", From: model.LabelNetworkService, To: model.LabelNetwork, OutCard: graph.AnyNumber, InCard: graph.ExactlyOne}

	relProjectFlavors  = graph.Relation{Type: "CAN_USE_VM_FLAVOR", From: model.LabelProject, To: model.LabelFlavor, OutCard: graph.AnyNumber, InCard: graph.AnyNumber}
	relProjectImages   = graph.Relation{Type: "CAN_USE_VM_IMAGE", From: model.LabelProject, To: model.LabelImage, OutCard: graph.AnyNumber, InCard: graph.AnyNumber}
	relProjectNetworks = graph.Relation{Type: "CAN_USE_NETWORK", From: model.LabelProject, To: model.LabelNetwork, OutCard: graph.AnyNumber, InCard: graph.OptionalOne}

	relSLAProjects   = graph.Relation{Type: "REFER_TO", From: model.LabelSLA, To: model.LabelProject, OutCard: graph.AtLeastOne, InCard: graph.OptionalOne}
	relUserGroupSLAs = graph.Relation{Type: "AGREE", From: model.LabelUserGroup, To: model.LabelSLA, OutCard: graph.AnyNumber, InCard: graph.ExactlyOne}
	relIdPUserGroups = graph.Relation{Type: "HAS_USER_GROUP", From: model.LabelIdentityProvider, To: model.LabelUserGroup, OutCard: graph.AnyNumber, InCard: graph.ExactlyOne}
)

func supply(label string) graph.Relation {
	return graph.Relation{Type: "SUPPLY", From: model.LabelRegion, To: label, OutCard: graph.AnyNumber, InCard: graph.ExactlyOne}
}

func applyTo(quota, target string) graph.Relation {
	return graph.Relation{Type: "APPLY_TO", From: quota, To: target, OutCard: graph.ExactlyOne, InCard: graph.AnyNumber}
}

// Quota and service relationships indexed by service type.
var (
	regionServiceRels = map[string]graph.Relation{
		model.ServiceTypeBlockStorage: relRegionBlockStorage,
		model.ServiceTypeCompute:      relRegionCompute,
		model.ServiceTypeIdentity:     relRegionIdentity,
		model.ServiceTypeNetwork:      relRegionNetwork,
	}
	quotaProjectRels = map[string]graph.Relation{
		model.ServiceTypeBlockStorage: relBlockStorageQuotaProject,
		model.ServiceTypeCompute:      relComputeQuotaProject,
		model.ServiceTypeNetwork:      relNetworkQuotaProject,
	}
	quotaServiceRels = map[string]graph.Relation{
		model.ServiceTypeBlockStorage: relBlockStorageQuotaService,
		model.ServiceTypeCompute:      relComputeQuotaService,
		model.ServiceTypeNetwork:      relNetworkQuotaService,
	}
)
