package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned when a coordinate pair falls outside its domain.
var ErrOutOfRange = errors.New("coordinates out of range")

// Coordinate domain bounds.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Position is an immutable geographic site.
type Position struct {
	Latitude  float64 `json:"lat"` // degrees, [-90, 90]
	Longitude float64 `json:"lon"` // degrees, [-180, 180]
}

// Validate reports whether p lies within the coordinate domain.
func (p Position) Validate() error {
	if !finite(p.Latitude) || p.Latitude < MinLatitude || p.Latitude > MaxLatitude {
		return fmt.Errorf("%w: latitude %v not in [%v, %v]", ErrOutOfRange, p.Latitude, MinLatitude, MaxLatitude)
	}
	if !finite(p.Longitude) || p.Longitude < MinLongitude || p.Longitude > MaxLongitude {
		return fmt.Errorf("%w: longitude %v not in [%v, %v]", ErrOutOfRange, p.Longitude, MinLongitude, MaxLongitude)
	}
	return nil
}

// String renders the position the way the map info panel shows it.
func (p Position) String() string {
	return fmt.Sprintf("%.4f°, %.4f°", p.Latitude, p.Longitude)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
