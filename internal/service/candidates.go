package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jalansafe/routeintel/internal/domain"
	"github.com/jalansafe/routeintel/internal/geometry"
)

// MaxCandidates is the most routes the synthesizer returns for one request
const MaxCandidates = 3

// Synthesizer builds distinct route candidates from a single-path provider by
// forcing detours through points offset from the primary route's midpoint
type Synthesizer struct {
	provider  domain.RouteProvider
	minPoints int
	viaOffset float64
	log       logrus.FieldLogger
}

// NewSynthesizer creates a synthesizer. Alternatives are only requested when
// the primary geometry has more than minPoints vertices.
func NewSynthesizer(provider domain.RouteProvider, minPoints int, viaOffset float64, log logrus.FieldLogger) *Synthesizer {
	return &Synthesizer{
		provider:  provider,
		minPoints: minPoints,
		viaOffset: viaOffset,
		log:       log,
	}
}

// RouteID fingerprints a route by its encoded geometry
func RouteID(geometry string) string {
	sum := sha256.Sum256([]byte(geometry))
	return hex.EncodeToString(sum[:])
}

// Candidates returns up to MaxCandidates deduplicated routes, primary first.
// An empty slice means no route was found; provider errors are never returned.
func (s *Synthesizer) Candidates(ctx context.Context, start, end domain.Coordinate) []domain.RouteCandidate {
	log := s.log.WithFields(logrus.Fields{"start": start.String(), "end": end.String()})

	primary, err := s.fetch(ctx, []domain.Coordinate{start, end})
	if err != nil {
		log.WithError(err).Warn("Primary route fetch failed")
		return []domain.RouteCandidate{}
	}
	candidates := []domain.RouteCandidate{primary}

	path, err := geometry.Decode(primary.Geometry)
	if err != nil {
		log.WithError(err).Warn("Primary route geometry undecodable, skipping alternatives")
		return candidates
	}
	if len(path) <= s.minPoints {
		return candidates
	}

	mid, _ := geometry.Midpoint(path)
	vias := []domain.Coordinate{
		mid.Offset(s.viaOffset, s.viaOffset),
		mid.Offset(-s.viaOffset, -s.viaOffset),
	}

	alternatives := make([]*domain.RouteCandidate, len(vias))
	g, gctx := errgroup.WithContext(ctx)
	for i, via := range vias {
		i, via := i, via
		g.Go(func() error {
			alt, err := s.fetch(gctx, []domain.Coordinate{start, via, end})
			if err != nil {
				log.WithError(err).WithField("via", via.String()).Debug("Alternative route dropped")
				return nil
			}
			alternatives[i] = &alt
			return nil
		})
	}
	_ = g.Wait()

	seen := map[string]bool{primary.ID: true}
	for _, alt := range alternatives {
		if alt == nil || seen[alt.ID] || len(candidates) == MaxCandidates {
			continue
		}
		seen[alt.ID] = true
		candidates = append(candidates, *alt)
	}
	return candidates
}

func (s *Synthesizer) fetch(ctx context.Context, waypoints []domain.Coordinate) (domain.RouteCandidate, error) {
	res, err := s.provider.FetchRoute(ctx, waypoints)
	if err != nil {
		return domain.RouteCandidate{}, err
	}
	return domain.RouteCandidate{
		ID:              RouteID(res.Geometry),
		Waypoints:       waypoints,
		Geometry:        res.Geometry,
		DurationSeconds: res.DurationSeconds,
		DistanceMeters:  res.DistanceMeters,
		Steps:           res.Steps,
	}, nil
}
