package model

type Location struct {
	Base
	Site      string   `json:"site" validate:"required"`
	Country   string   `json:"country" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

type LocationPublic struct {
	Base
	Site    string `json:"site"`
	Country string `json:"country"`
}

func (l Location) Public() any { return LocationPublic{Base: l.Base, Site: l.Site, Country: l.Country} }
func (l Location) Short() any  { return summary(l.Base, l.Site) }

type LocationUpdate struct {
	Description *string  `json:"description,omitempty"`
	Site        *string  `json:"site,omitempty" validate:"omitempty,min=1"`
	Country     *string  `json:"country,omitempty" validate:"omitempty,min=1"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}
