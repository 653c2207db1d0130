package model

type UserGroup struct {
	Base
	Name string `json:"name" validate:"required"`
}

type UserGroupPublic struct {
	Base
	Name string `json:"name"`
}

func (u UserGroup) Public() any { return UserGroupPublic(u) }
func (u UserGroup) Short() any  { return summary(u.Base, u.Name) }

type UserGroupUpdate struct {
	Description *string `json:"description,omitempty"`
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1"`
}
