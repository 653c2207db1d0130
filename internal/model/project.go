package model

type Project struct {
	Base
	Name string `json:"name" validate:"required"`
	UUID string `json:"uuid" validate:"required"`
}

type ProjectPublic struct {
	Base
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

func (p Project) Public() any { return ProjectPublic(p) }
func (p Project) Short() any  { return summary(p.Base, p.Name) }

type ProjectUpdate struct {
	Description *string `json:"description,omitempty"`
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1"`
	UUID        *string `json:"uuid,omitempty" validate:"omitempty,min=1"`
}
