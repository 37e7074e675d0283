// Package location covers both sides of the geofence: the client-side
// coordinate provider (a stand-in for the platform location service) and the
// server-side distance check against the office coordinate.
package location

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
)

// ErrUnavailable is returned by providers when no coordinate can be produced,
// e.g. permission was denied or the fix timed out. Callers treat it as a
// pending condition, not a failure.
var ErrUnavailable = errors.New("location unavailable")

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Provider abstracts the platform location service.
type Provider interface {
	Current(ctx context.Context) (Coordinate, error)
}

// Static always yields the same coordinate. Used by the CLI when the position
// is passed on the command line, and by tests.
type Static struct {
	Coordinate Coordinate
}

func (s Static) Current(ctx context.Context) (Coordinate, error) {
	select {
	case <-ctx.Done():
		return Coordinate{}, ctx.Err()
	default:
		return s.Coordinate, nil
	}
}

// Env reads DEVICE_LATITUDE / DEVICE_LONGITUDE. Missing or malformed values
// surface as ErrUnavailable, which mirrors a denied permission on device.
type Env struct{}

func (Env) Current(ctx context.Context) (Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return Coordinate{}, err
	}

	lat, latErr := strconv.ParseFloat(os.Getenv("DEVICE_LATITUDE"), 64)
	lon, lonErr := strconv.ParseFloat(os.Getenv("DEVICE_LONGITUDE"), 64)
	if latErr != nil || lonErr != nil {
		return Coordinate{}, ErrUnavailable
	}

	return Coordinate{Latitude: lat, Longitude: lon}, nil
}

const earthRadiusMeters = 6371000

// Haversine returns the great-circle distance between two coordinates in
// meters.
func Haversine(a, b Coordinate) float64 {
	phi1 := radians(a.Latitude)
	phi2 := radians(b.Latitude)
	deltaPhi := radians(b.Latitude - a.Latitude)
	deltaLambda := radians(b.Longitude - a.Longitude)

	h := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Geofence checks whether a coordinate lies within the allowed radius of the
// office.
type Geofence struct {
	Office            Coordinate
	MaxDistanceMeters float64
}

type GeofenceResult struct {
	Allowed     bool    `json:"allowed"`
	Distance    float64 `json:"distance"`
	MaxDistance float64 `json:"max_distance"`
	Message     string  `json:"message"`
}

func (g Geofence) Check(c Coordinate) GeofenceResult {
	distance := math.Round(Haversine(c, g.Office)*10) / 10
	allowed := distance <= g.MaxDistanceMeters

	message := fmt.Sprintf("within the allowed area (%.0f m)", distance)
	if !allowed {
		message = fmt.Sprintf("you are %.0f meters from the office (allowed: %.0f m)", distance, g.MaxDistanceMeters)
	}

	return GeofenceResult{
		Allowed:     allowed,
		Distance:    distance,
		MaxDistance: g.MaxDistanceMeters,
		Message:     message,
	}
}

// GeofenceFromEnv builds the office geofence from OFFICE_LATITUDE,
// OFFICE_LONGITUDE and MAX_DISTANCE_METERS, falling back to the defaults the
// recognition service ships with.
func GeofenceFromEnv() Geofence {
	fence := Geofence{
		Office:            Coordinate{Latitude: 13.786888889, Longitude: 100.499083333},
		MaxDistanceMeters: 200,
	}

	if lat, err := strconv.ParseFloat(os.Getenv("OFFICE_LATITUDE"), 64); err == nil {
		fence.Office.Latitude = lat
	}
	if lon, err := strconv.ParseFloat(os.Getenv("OFFICE_LONGITUDE"), 64); err == nil {
		fence.Office.Longitude = lon
	}
	if maxDist, err := strconv.ParseFloat(os.Getenv("MAX_DISTANCE_METERS"), 64); err == nil {
		fence.MaxDistanceMeters = maxDist
	}

	return fence
}
