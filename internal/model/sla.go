package model

type SLA struct {
	Base
	DocUUID   string `json:"doc_uuid" validate:"required"`
	StartDate Date   `json:"start_date"`
	EndDate   Date   `json:"end_date"`
}

type SLAPublic struct {
	Base
	DocUUID string `json:"doc_uuid"`
}

func (s SLA) Public() any { return SLAPublic{Base: s.Base, DocUUID: s.DocUUID} }
func (s SLA) Short() any  { return summary(s.Base, s.DocUUID) }

type SLAUpdate struct {
	Description *string `json:"description,omitempty"`
	DocUUID     *string `json:"doc_uuid,omitempty" validate:"omitempty,min=1"`
	StartDate   *Date   `json:"start_date,omitempty"`
	EndDate     *Date   `json:"end_date,omitempty"`
}
