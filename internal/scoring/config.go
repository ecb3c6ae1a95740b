package scoring

import (
	"time"

	"github.com/jalansafe/routeintel/internal/domain"
	"github.com/jalansafe/routeintel/internal/geometry"
)

// Config holds the tunable weights and thresholds of the scoring engine
type Config struct {
	HazardWeight   float64 // penalty per matched hazard
	ObserverWeight float64 // penalty per active observer
	DelayWeight    float64 // penalty per unit of relative delay vs the optimal route

	GreenAbove float64 // score strictly above which a route is green
	RedBelow   float64 // score strictly below which a route is red

	RedObserverLimit          int // more observers than this forces red
	OptimalGreenObserverLimit int // optimal route with fewer observers and no hazards is forced green

	HazardRadiusMeters float64
	TrafficWindow      time.Duration
	MatchStride        int
}

// DefaultConfig returns the weights the engine was tuned with
func DefaultConfig() Config {
	return Config{
		HazardWeight:              10,
		ObserverWeight:            5,
		DelayWeight:               15,
		GreenAbove:                80,
		RedBelow:                  50,
		RedObserverLimit:          10,
		OptimalGreenObserverLimit: 5,
		HazardRadiusMeters:        geometry.DefaultThresholdMeters,
		TrafficWindow:             domain.DefaultTrafficWindow,
		MatchStride:               1,
	}
}
