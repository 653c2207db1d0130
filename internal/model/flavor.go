package model

type Flavor struct {
	Base
	Name         string  `json:"name" validate:"required"`
	UUID         string  `json:"uuid" validate:"required"`
	Disk         int     `json:"disk" validate:"gte=0"`
	IsPublic     bool    `json:"is_public"`
	RAM          int     `json:"ram" validate:"gte=0"`
	VCPUs        int     `json:"vcpus" validate:"gte=0"`
	Swap         int     `json:"swap" validate:"gte=0"`
	Ephemeral    int     `json:"ephemeral" validate:"gte=0"`
	Infiniband   bool    `json:"infiniband"`
	GPUs         int     `json:"gpus" validate:"gte=0"`
	GPUModel     *string `json:"gpu_model"`
	GPUVendor    *string `json:"gpu_vendor"`
	LocalStorage *string `json:"local_storage"`
}

type FlavorPublic struct {
	Base
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

func (f Flavor) Public() any { return FlavorPublic{Base: f.Base, Name: f.Name, UUID: f.UUID} }
func (f Flavor) Short() any  { return summary(f.Base, f.Name) }

type FlavorUpdate struct {
	Description  *string `json:"description,omitempty"`
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1"`
	UUID         *string `json:"uuid,omitempty" validate:"omitempty,min=1"`
	Disk         *int    `json:"disk,omitempty" validate:"omitempty,gte=0"`
	IsPublic     *bool   `json:"is_public,omitempty"`
	RAM          *int    `json:"ram,omitempty" validate:"omitempty,gte=0"`
	VCPUs        *int    `json:"vcpus,omitempty" validate:"omitempty,gte=0"`
	Swap         *int    `json:"swap,omitempty" validate:"omitempty,gte=0"`
	Ephemeral    *int    `json:"ephemeral,omitempty" validate:"omitempty,gte=0"`
	Infiniband   *bool   `json:"infiniband,omitempty"`
	GPUs         *int    `json:"gpus,omitempty" validate:"omitempty,gte=0"`
	GPUModel     *string `json:"gpu_model,omitempty"`
	GPUVendor    *string `json:"gpu_vendor,omitempty"`
	LocalStorage *string `json:"local_storage,omitempty"`
}
