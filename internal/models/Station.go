package models

import (
	"gorm.io/gorm"
)

// Station is immutable reference data identified by a unique station code.
type Station struct {
	gorm.Model
	StationNo string `json:"station_no" gorm:"unique" binding:"required"`
	Name      string `json:"name" binding:"required"`

	// Optional geographic location stored as a WKB point (SRID 4326).
	// GeoJSON at the API boundary.
	Location []byte `gorm:"type:bytea" json:"-"`
}
