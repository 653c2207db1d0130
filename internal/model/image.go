package model

type Image struct {
	Base
	Name         string   `json:"name" validate:"required"`
	UUID         string   `json:"uuid" validate:"required"`
	OSType       *string  `json:"os_type" validate:"omitempty,oneof=Linux Windows MacOS"`
	OSDistro     *string  `json:"os_distro"`
	OSVersion    *string  `json:"os_version"`
	Architecture *string  `json:"architecture"`
	KernelID     *string  `json:"kernel_id"`
	CUDASupport  bool     `json:"cuda_support"`
	GPUDriver    bool     `json:"gpu_driver"`
	IsPublic     bool     `json:"is_public"`
	Tags         []string `json:"tags"`
}

type ImagePublic struct {
	Base
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

func (i Image) Public() any { return ImagePublic{Base: i.Base, Name: i.Name, UUID: i.UUID} }
func (i Image) Short() any  { return summary(i.Base, i.Name) }

type ImageUpdate struct {
	Description  *string   `json:"description,omitempty"`
	Name         *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	UUID         *string   `json:"uuid,omitempty" validate:"omitempty,min=1"`
	OSType       *string   `json:"os_type,omitempty" validate:"omitempty,oneof=Linux Windows MacOS"`
	OSDistro     *string   `json:"os_distro,omitempty"`
	OSVersion    *string   `json:"os_version,omitempty"`
	Architecture *string   `json:"architecture,omitempty"`
	KernelID     *string   `json:"kernel_id,omitempty"`
	CUDASupport  *bool     `json:"cuda_support,omitempty"`
	GPUDriver    *bool     `json:"gpu_driver,omitempty"`
	IsPublic     *bool     `json:"is_public,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
}
