package model

type Provider struct {
	Base
	Name          string   `json:"name" validate:"required"`
	Type          string   `json:"type" validate:"required,oneof=openstack kubernetes"`
	Status        string   `json:"status" validate:"required,oneof=active deprecated maintenance limited"`
	IsPublic      bool     `json:"is_public"`
	SupportEmails []string `json:"support_emails" validate:"dive,email"`
}

// NewProvider returns a provider with default attribute values.
func NewProvider(name, typ string) Provider {
	return Provider{Name: name, Type: typ, Status: ProviderStatusActive, SupportEmails: []string{}}
}

type ProviderPublic struct {
	Base
	Name string `json:"name"`
}

func (p Provider) Public() any { return ProviderPublic{Base: p.Base, Name: p.Name} }
func (p Provider) Short() any  { return summary(p.Base, p.Name) }

type ProviderUpdate struct {
	Description   *string   `json:"description,omitempty"`
	Name          *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	Type          *string   `json:"type,omitempty" validate:"omitempty,oneof=openstack kubernetes"`
	Status        *string   `json:"status,omitempty" validate:"omitempty,oneof=active deprecated maintenance limited"`
	IsPublic      *bool     `json:"is_public,omitempty"`
	SupportEmails *[]string `json:"support_emails,omitempty" validate:"omitempty,dive,email"`
}
