package model

type Network struct {
	Base
	Name             string   `json:"name" validate:"required"`
	UUID             string   `json:"uuid" validate:"required"`
	IsShared         bool     `json:"is_shared"`
	IsRouterExternal bool     `json:"is_router_external"`
	IsDefault        bool     `json:"is_default"`
	MTU              *int     `json:"mtu" validate:"omitempty,gt=0"`
	ProxyHost        *string  `json:"proxy_host"`
	ProxyUser        *string  `json:"proxy_user"`
	Tags             []string `json:"tags"`
}

type NetworkPublic struct {
	Base
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

func (n Network) Public() any { return NetworkPublic{Base: n.Base, Name: n.Name, UUID: n.UUID} }
func (n Network) Short() any  { return summary(n.Base, n.Name) }

type NetworkUpdate struct {
	Description      *string   `json:"description,omitempty"`
	Name             *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	UUID             *string   `json:"uuid,omitempty" validate:"omitempty,min=1"`
	IsShared         *bool     `json:"is_shared,omitempty"`
	IsRouterExternal *bool     `json:"is_router_external,omitempty"`
	IsDefault        *bool     `json:"is_default,omitempty"`
	MTU              *int      `json:"mtu,omitempty" validate:"omitempty,gt=0"`
	ProxyHost        *string   `json:"proxy_host,omitempty"`
	ProxyUser        *string   `json:"proxy_user,omitempty"`
	Tags             *[]string `json:"tags,omitempty"`
}
