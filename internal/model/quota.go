package model

// QuotaBase holds the attributes shared by every quota kind. A quota without
// PerUser or Usage set is the project-wide limit.
type QuotaBase struct {
	Base
	Type    string `json:"type"`
	PerUser bool   `json:"per_user"`
	Usage   bool   `json:"usage"`
}

type QuotaPublic = QuotaBase

type BlockStorageQuota struct {
	QuotaBase
	Gigabytes          *int `json:"gigabytes" validate:"omitempty,gte=-1"`
	PerVolumeGigabytes *int `json:"per_volume_gigabytes" validate:"omitempty,gte=-1"`
	Volumes            *int `json:"volumes" validate:"omitempty,gte=-1"`
}

func NewBlockStorageQuota() BlockStorageQuota {
	return BlockStorageQuota{QuotaBase: QuotaBase{Type: ServiceTypeBlockStorage}}
}

func (q BlockStorageQuota) Public() any { return q.QuotaBase }
func (q BlockStorageQuota) Short() any  { return summary(q.Base, q.Type) }

type ComputeQuota struct {
	QuotaBase
	Cores     *int `json:"cores" validate:"omitempty,gte=0"`
	Instances *int `json:"instances" validate:"omitempty,gte=0"`
	RAM       *int `json:"ram" validate:"omitempty,gte=0"`
}

func NewComputeQuota() ComputeQuota {
	return ComputeQuota{QuotaBase: QuotaBase{Type: ServiceTypeCompute}}
}

func (q ComputeQuota) Public() any { return q.QuotaBase }
func (q ComputeQuota) Short() any  { return summary(q.Base, q.Type) }

type NetworkQuota struct {
	QuotaBase
	PublicIPs          *int `json:"public_ips" validate:"omitempty,gte=-1"`
	Networks           *int `json:"networks" validate:"omitempty,gte=-1"`
	Ports              *int `json:"ports" validate:"omitempty,gte=-1"`
	SecurityGroups     *int `json:"security_groups" validate:"omitempty,gte=-1"`
	SecurityGroupRules *int `json:"security_group_rules" validate:"omitempty,gte=-1"`
}

func NewNetworkQuota() NetworkQuota {
	return NetworkQuota{QuotaBase: QuotaBase{Type: ServiceTypeNetwork}}
}

func (q NetworkQuota) Public() any { return q.QuotaBase }
func (q NetworkQuota) Short() any  { return summary(q.Base, q.Type) }

type BlockStorageQuotaUpdate struct {
	Description        *string `json:"description,omitempty"`
	PerUser            *bool   `json:"per_user,omitempty"`
	Usage              *bool   `json:"usage,omitempty"`
	Gigabytes          *int    `json:"gigabytes,omitempty" validate:"omitempty,gte=-1"`
	PerVolumeGigabytes *int    `json:"per_volume_gigabytes,omitempty" validate:"omitempty,gte=-1"`
	Volumes            *int    `json:"volumes,omitempty" validate:"omitempty,gte=-1"`
}

type ComputeQuotaUpdate struct {
	Description *string `json:"description,omitempty"`
	PerUser     *bool   `json:"per_user,omitempty"`
	Usage       *bool   `json:"usage,omitempty"`
	Cores       *int    `json:"cores,omitempty" validate:"omitempty,gte=0"`
	Instances   *int    `json:"instances,omitempty" validate:"omitempty,gte=0"`
	RAM         *int    `json:"ram,omitempty" validate:"omitempty,gte=0"`
}

type NetworkQuotaUpdate struct {
	Description        *string `json:"description,omitempty"`
	PerUser            *bool   `json:"per_user,omitempty"`
	Usage              *bool   `json:"usage,omitempty"`
	PublicIPs          *int    `json:"public_ips,omitempty" validate:"omitempty,gte=-1"`
	Networks           *int    `json:"networks,omitempty" validate:"omitempty,gte=-1"`
	Ports              *int    `json:"ports,omitempty" validate:"omitempty,gte=-1"`
	SecurityGroups     *int    `json:"security_groups,omitempty" validate:"omitempty,gte=-1"`
	SecurityGroupRules *int    `json:"security_group_rules,omitempty" validate:"omitempty,gte=-1"`
}
