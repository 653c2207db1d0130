package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Node labels.
const (
	LabelProvider            = "Provider"
	LabelRegion              = "Region"
	LabelLocation            = "Location"
	LabelProject             = "Project"
	LabelFlavor              = "Flavor"
	LabelImage               = "Image"
	LabelNetwork             = "Network"
	LabelBlockStorageQuota   = "BlockStorageQuota"
	LabelComputeQuota        = "ComputeQuota"
	LabelNetworkQuota        = "NetworkQuota"
	LabelBlockStorageService = "BlockStorageService"
	LabelComputeService      = "ComputeService"
	LabelIdentityService     = "IdentityService"
	LabelNetworkService      = "NetworkService"
	LabelSLA                 = "SLA"
	LabelIdentityProvider    = "IdentityProvider"
	LabelUserGroup           = "UserGroup"
)

// Base holds the attributes every registry entity carries.
type Base struct {
	UID         string `json:"uid"`
	Description string `json:"description"`
}

func (b Base) GetUID() string { return b.UID }

// Entity is implemented by every stored node type. Public and Short return
// the reduced read shapes.
type Entity interface {
	GetUID() string
	Public() any
	Short() any
}

// Summary is the short read shape: identifier plus display key.
type Summary struct {
	UID         string `json:"uid"`
	Description string `json:"description"`
	Name        string `json:"name"`
}

func summary(b Base, name string) Summary {
	return Summary{UID: b.UID, Description: b.Description, Name: name}
}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.DateOnly))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
	}
	d.Time = t
	return nil
}
