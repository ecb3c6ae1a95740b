package scoring

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/jalansafe/routeintel/internal/domain"
	"github.com/jalansafe/routeintel/internal/geometry"
	"github.com/jalansafe/routeintel/pkg/utils"
)

// Scorer ranks route candidates by hazards, live traffic and travel time
type Scorer struct {
	cfg     Config
	matcher *geometry.Matcher
	log     logrus.FieldLogger
}

// NewScorer creates a scorer with the given configuration
func NewScorer(cfg Config, log logrus.FieldLogger) *Scorer {
	return &Scorer{
		cfg:     cfg,
		matcher: geometry.NewMatcher(cfg.MatchStride),
		log:     log,
	}
}

// Config returns the active configuration
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score annotates every candidate and returns them best first.
// hazards should already be restricted to the categories that affect routing;
// observers maps candidate id to its active observer count.
func (s *Scorer) Score(
	candidates []domain.RouteCandidate,
	hazards []domain.HazardReport,
	observers map[string]int,
	weather string,
) []domain.ScoredRoute {
	if len(candidates) == 0 {
		return []domain.ScoredRoute{}
	}

	byDuration := make([]domain.RouteCandidate, len(candidates))
	copy(byDuration, candidates)
	sort.SliceStable(byDuration, func(i, j int) bool {
		return byDuration[i].DurationSeconds < byDuration[j].DurationSeconds
	})
	optimalDuration := byDuration[0].DurationSeconds

	scored := make([]domain.ScoredRoute, 0, len(byDuration))
	for i, c := range byDuration {
		issues := s.matchHazards(c, hazards)
		active := observers[c.ID]
		delta := c.DurationSeconds - optimalDuration
		isOptimal := i == 0

		score := s.compute(len(issues), active, delta, optimalDuration)

		scored = append(scored, domain.ScoredRoute{
			RouteCandidate: c,
			Score:          score,
			Classification: s.Classify(score, len(issues), active, isOptimal),
			IsOptimal:      isOptimal,
			TimeSlower:     utils.RoundTo(delta, 1),
			Issues:         issues,
			ActiveUsers:    active,
			Weather:        weather,
			Tags:           Tags(isOptimal, len(issues), active),
		})
	}

	// byDuration order is kept for equal scores
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// compute is max(0, 100 - wH*h - wO*u - wD*delta/optimal), capped at 100
func (s *Scorer) compute(hazardCount, observerCount int, delta, optimalDuration float64) float64 {
	score := 100 -
		s.cfg.HazardWeight*float64(hazardCount) -
		s.cfg.ObserverWeight*float64(observerCount)
	if optimalDuration > 0 {
		score -= s.cfg.DelayWeight * (delta / optimalDuration)
	}
	return utils.Clamp(score, 0, 100)
}

// Classify maps a route's own score and counts onto green/yellow/red
func (s *Scorer) Classify(score float64, hazardCount, observerCount int, isOptimal bool) domain.Classification {
	class := domain.ClassificationYellow
	switch {
	case score < s.cfg.RedBelow || observerCount > s.cfg.RedObserverLimit:
		class = domain.ClassificationRed
	case score > s.cfg.GreenAbove:
		class = domain.ClassificationGreen
	}

	if hazardCount > 0 && class == domain.ClassificationGreen {
		class = domain.ClassificationYellow
	}
	if isOptimal && hazardCount == 0 && observerCount < s.cfg.OptimalGreenObserverLimit {
		class = domain.ClassificationGreen
	}
	return class
}

// Tags returns the explanatory tags for a route
func Tags(isOptimal bool, hazardCount, observerCount int) []string {
	tags := []string{}
	if isOptimal {
		tags = append(tags, domain.TagOptimalPath)
	}
	if hazardCount > 0 {
		tags = append(tags, domain.TagHasIssues)
	}
	if observerCount > 0 {
		tags = append(tags, domain.TagHasTraffic)
	}
	return tags
}

func (s *Scorer) matchHazards(c domain.RouteCandidate, hazards []domain.HazardReport) []domain.RouteIssue {
	issues := []domain.RouteIssue{}
	if len(hazards) == 0 {
		return issues
	}

	path, err := geometry.Decode(c.Geometry)
	if err != nil {
		s.log.WithField("route_id", c.ID).WithError(err).Warn("Skipping hazard matching for undecodable route")
		return issues
	}

	idx := s.matcher.Index(path)
	for _, h := range hazards {
		if idx.Near(h.Location, s.cfg.HazardRadiusMeters) {
			issues = append(issues, h.Issue())
		}
	}
	s.log.WithFields(logrus.Fields{
		"route_id": c.ID,
		"vertices": idx.Len(),
		"issues":   len(issues),
	}).Debug("Matched hazards along route")
	return issues
}
