package geometry

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/jalansafe/routeintel/internal/domain"
)

// Decode turns an encoded polyline (precision 1e5) into an ordered path
func Decode(encoded string) ([]domain.Coordinate, error) {
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("geometry: failed to decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("geometry: %d trailing bytes after polyline", len(rest))
	}

	path := make([]domain.Coordinate, len(coords))
	for i, c := range coords {
		path[i] = domain.Coordinate{Lat: c[0], Lon: c[1]}
	}
	return path, nil
}

// Encode is the inverse of Decode
func Encode(path []domain.Coordinate) string {
	coords := make([][]float64, len(path))
	for i, c := range path {
		coords[i] = []float64{c.Lat, c.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// Midpoint returns the vertex in the middle of the path
func Midpoint(path []domain.Coordinate) (domain.Coordinate, bool) {
	if len(path) == 0 {
		return domain.Coordinate{}, false
	}
	return path[len(path)/2], true
}
