package model

type Region struct {
	Base
	Name           string  `json:"name" validate:"required"`
	OverbookingCPU float64 `json:"overbooking_cpu"`
	OverbookingRAM float64 `json:"overbooking_ram"`
	BandwidthIn    float64 `json:"bandwidth_in"`
	BandwidthOut   float64 `json:"bandwidth_out"`
}

// NewRegion returns a region with default overbooking and bandwidth values.
func NewRegion(name string) Region {
	return Region{Name: name, OverbookingCPU: 1.0, OverbookingRAM: 1.0, BandwidthIn: 10.0, BandwidthOut: 10.0}
}

type RegionPublic struct {
	Base
	Name string `json:"name"`
}

func (r Region) Public() any { return RegionPublic{Base: r.Base, Name: r.Name} }
func (r Region) Short() any  { return summary(r.Base, r.Name) }

type RegionUpdate struct {
	Description    *string  `json:"description,omitempty"`
	Name           *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	OverbookingCPU *float64 `json:"overbooking_cpu,omitempty"`
	OverbookingRAM *float64 `json:"overbooking_ram,omitempty"`
	BandwidthIn    *float64 `json:"bandwidth_in,omitempty"`
	BandwidthOut   *float64 `json:"bandwidth_out,omitempty"`
}
