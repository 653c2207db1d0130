package model

type IdentityProvider struct {
	Base
	Endpoint   string `json:"endpoint" validate:"required,url"`
	GroupClaim string `json:"group_claim" validate:"required"`
}

type IdentityProviderPublic struct {
	Base
	Endpoint string `json:"endpoint"`
}

func (i IdentityProvider) Public() any {
	return IdentityProviderPublic{Base: i.Base, Endpoint: i.Endpoint}
}
func (i IdentityProvider) Short() any { return summary(i.Base, i.Endpoint) }

type IdentityProviderUpdate struct {
	Description *string `json:"description,omitempty"`
	Endpoint    *string `json:"endpoint,omitempty" validate:"omitempty,url"`
	GroupClaim  *string `json:"group_claim,omitempty" validate:"omitempty,min=1"`
}

// AuthMethod is stored on the edge linking a provider to an identity provider.
type AuthMethod struct {
	IdPName  string `json:"idp_name" validate:"required"`
	Protocol string `json:"protocol" validate:"required"`
	Audience string `json:"audience,omitempty"`
}
