package model

// Service is an endpoint exposed by a region. Type is fixed by the node label;
// Name must be one of the names accepted for Type.
type Service struct {
	Base
	Endpoint string `json:"endpoint" validate:"required,url"`
	Type     string `json:"type" validate:"required,oneof=block-storage compute identity network"`
	Name     string `json:"name" validate:"required"`
}

func NewService(typ, name, endpoint string) Service {
	return Service{Type: typ, Name: name, Endpoint: endpoint}
}

type ServicePublic struct {
	Base
	Endpoint string `json:"endpoint"`
}

func (s Service) Public() any { return ServicePublic{Base: s.Base, Endpoint: s.Endpoint} }
func (s Service) Short() any  { return summary(s.Base, s.Endpoint) }

type ServiceUpdate struct {
	Description *string `json:"description,omitempty"`
	Endpoint    *string `json:"endpoint,omitempty" validate:"omitempty,url"`
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1"`
}
