package activity

import (
	"math"
	"sync"

	"github.com/newswatch/newswatch/app/feed"
)

type Level string

const (
	LevelNormal   Level = "normal"
	LevelElevated Level = "elevated"
	LevelCritical Level = "critical"
)

type Direction string

const (
	DirectionAbove  Direction = "above"
	DirectionBelow  Direction = "below"
	DirectionNormal Direction = "normal"
)

// Alert thresholds. Elevated and critical require both a ratio floor
// and an absolute-count floor, so sparse-baseline regions cannot flag
// critical off a handful of posts.
const (
	criticalMultiplier = 5.0
	criticalMinCount   = 50
	elevatedMultiplier = 2.5
	elevatedMinCount   = 25
	aboveMultiplier    = 1.5
	belowMultiplier    = 0.5
)

// RegionActivity is the derived per-region anomaly signal. Not
// persisted; recomputed per request from the full-window snapshot.
type RegionActivity struct {
	Region        string    `json:"region"`
	Count         int       `json:"count"`
	Baseline      float64   `json:"baseline"`
	Multiplier    float64   `json:"multiplier"`
	Level         Level     `json:"level"`
	Direction     Direction `json:"direction"`
	PercentChange int       `json:"percent_change"`
}

// Engine compares observed per-region post counts against measured
// baselines. Baselines are swapped wholesale when the external table is
// re-read; tracked and excluded regions are fixed for the process.
type Engine struct {
	mu        sync.RWMutex
	baselines map[string]float64
	regions   []string
	excluded  map[string]struct{}
}

func NewEngine(regions []string, excluded map[string]struct{}) *Engine {
	return &Engine{
		baselines: make(map[string]float64),
		regions:   regions,
		excluded:  excluded,
	}
}

func (e *Engine) SetBaselines(baselines map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.baselines = baselines
}

func (e *Engine) BaselineCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.baselines)
}

// Run computes the activity signal for every tracked region from the
// full-window post snapshot. The map always contains all tracked
// regions, including those with zero observed posts.
func (e *Engine) Run(windowPosts []feed.Post) map[string]RegionActivity {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := make(map[string]int, len(e.regions))
	for _, post := range windowPosts {
		counts[post.Region]++
	}

	result := make(map[string]RegionActivity, len(e.regions))
	for _, region := range e.regions {
		count := counts[region]
		baseline := e.baselines[region]

		ra := RegionActivity{
			Region:    region,
			Count:     count,
			Baseline:  baseline,
			Level:     LevelNormal,
			Direction: DirectionNormal,
		}

		if baseline > 0 {
			ra.Multiplier = math.Round(float64(count)/baseline*10) / 10
			ra.PercentChange = int(math.Round((float64(count) - baseline) / baseline * 100))

			switch {
			case ra.Multiplier >= aboveMultiplier:
				ra.Direction = DirectionAbove
			case ra.Multiplier <= belowMultiplier:
				ra.Direction = DirectionBelow
			}
		}

		if _, pinned := e.excluded[region]; !pinned {
			switch {
			case ra.Multiplier >= criticalMultiplier && count >= criticalMinCount:
				ra.Level = LevelCritical
			case ra.Multiplier >= elevatedMultiplier && count >= elevatedMinCount:
				ra.Level = LevelElevated
			}
		}

		result[region] = ra
	}

	return result
}
