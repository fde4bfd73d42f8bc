package geo

import (
	"encoding/json"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Coordinates is a latitude/longitude pair in decimal degrees.
// It serializes as a JSON object {"lat":..,"lon":..}.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Pair returns the coordinates as a [lat, lon] array, the shape used for
// persisted map centers.
func (c Coordinates) Pair() [2]float64 {
	return [2]float64{c.Lat, c.Lon}
}

// MarshalPair encodes the coordinates as a JSON [lat, lon] pair.
func (c Coordinates) MarshalPair() ([]byte, error) {
	return json.Marshal(c.Pair())
}

// UnmarshalPair decodes a JSON [lat, lon] pair.
func UnmarshalPair(data []byte) (Coordinates, error) {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return Coordinates{}, fmt.Errorf("decode coordinate pair: %w", err)
	}
	return Coordinates{Lat: pair[0], Lon: pair[1]}, nil
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lon)
}

// ValidCoordinates checks if latitude and longitude are within range.
// Latitude must be between -90 and 90
// Longitude must be between -180 and 180
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// HaversineKm returns the great-circle distance between a and b in kilometres.
func HaversineKm(a, b Coordinates) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RoundKm rounds a distance to two decimals.
func RoundKm(d float64) float64 {
	return math.Round(d*100) / 100
}

// CenterOf returns the arithmetic mean of the valid points, or fallback when
// none are valid.
func CenterOf(points []Coordinates, fallback Coordinates) Coordinates {
	var latSum, lonSum float64
	n := 0
	for _, p := range points {
		if !ValidCoordinates(p.Lat, p.Lon) {
			continue
		}
		latSum += p.Lat
		lonSum += p.Lon
		n++
	}
	if n == 0 {
		return fallback
	}
	return Coordinates{Lat: latSum / float64(n), Lon: lonSum / float64(n)}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
