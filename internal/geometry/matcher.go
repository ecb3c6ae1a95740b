package geometry

import (
	"math"

	"github.com/mmcloughlin/geohash"

	"github.com/jalansafe/routeintel/internal/domain"
	"github.com/jalansafe/routeintel/pkg/utils"
)

// DefaultThresholdMeters is the hazard-to-route proximity radius
const DefaultThresholdMeters = 300.0

// geohash precision 5 cells span 180/2^12 degrees on both axes (~4.9 km at the equator)
const (
	cellPrecision   = 5
	cellSpanDegrees = 180.0 / (1 << 12)
	metersPerDegree = 111320.0
)

// Matcher tests whether point hazards lie close to a route.
// It compares the point against route vertices only, sampling every Stride-th
// vertex (first and last are always kept).
type Matcher struct {
	Stride int
}

// NewMatcher creates a matcher; stride < 1 means every vertex
func NewMatcher(stride int) *Matcher {
	if stride < 1 {
		stride = 1
	}
	return &Matcher{Stride: stride}
}

// IsNear decodes geometry and reports whether point lies within thresholdMeters
// of any sampled vertex. An undecodable geometry matches nothing.
func (m *Matcher) IsNear(point domain.Coordinate, geometry string, thresholdMeters float64) bool {
	path, err := Decode(geometry)
	if err != nil {
		return false
	}
	return m.Index(path).Near(point, thresholdMeters)
}

// Index prepares a decoded path for repeated proximity queries
func (m *Matcher) Index(path []domain.Coordinate) *PathIndex {
	stride := m.Stride
	if stride < 1 {
		stride = 1
	}

	idx := &PathIndex{cells: make(map[string]struct{})}
	for i := 0; i < len(path); i += stride {
		idx.add(path[i])
	}
	if n := len(path); n > 0 && (n-1)%stride != 0 {
		idx.add(path[n-1])
	}
	return idx
}

// PathIndex holds sampled vertices plus the geohash cells around them
type PathIndex struct {
	vertices []domain.Coordinate
	cells    map[string]struct{}
}

func (p *PathIndex) add(c domain.Coordinate) {
	p.vertices = append(p.vertices, c)
	h := geohash.EncodeWithPrecision(c.Lat, c.Lon, cellPrecision)
	p.cells[h] = struct{}{}
	for _, n := range geohash.Neighbors(h) {
		p.cells[n] = struct{}{}
	}
}

// Len returns the number of sampled vertices
func (p *PathIndex) Len() int {
	return len(p.vertices)
}

// Near reports whether point is within thresholdMeters of a sampled vertex
func (p *PathIndex) Near(point domain.Coordinate, thresholdMeters float64) bool {
	if len(p.vertices) == 0 {
		return false
	}
	if coversThreshold(point.Lat, thresholdMeters) {
		h := geohash.EncodeWithPrecision(point.Lat, point.Lon, cellPrecision)
		if _, ok := p.cells[h]; !ok {
			return false
		}
	}

	for _, v := range p.vertices {
		if utils.Haversine(point.Lat, point.Lon, v.Lat, v.Lon) <= thresholdMeters {
			return true
		}
	}
	return false
}

// coversThreshold reports whether a vertex cell plus its neighbours is wide
// enough to contain every point within threshold of the vertex
func coversThreshold(lat, threshold float64) bool {
	lonSpan := cellSpanDegrees * metersPerDegree * math.Cos(lat*math.Pi/180)
	latSpan := cellSpanDegrees * metersPerDegree
	return threshold < 0.9*math.Min(lonSpan, latSpan)
}
