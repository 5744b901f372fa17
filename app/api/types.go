package api

import (
	"time"

	"github.com/newswatch/newswatch/app/activity"
	"github.com/newswatch/newswatch/app/cache"
	"github.com/newswatch/newswatch/app/curated"
	"github.com/newswatch/newswatch/app/feed"
	"github.com/newswatch/newswatch/app/sources"
)

type Handler struct {
	cacheService *cache.Service
	composer     *feed.Composer
	engine       *activity.Engine
	registry     *sources.Registry
	curated      *curated.Client
	startedAt    time.Time
}

// NewsResponse is the outbound contract of the monitoring core.
type NewsResponse struct {
	Items         []feed.Post                        `json:"items"`
	Activity      map[string]activity.RegionActivity `json:"activity"`
	FetchedAt     time.Time                          `json:"fetchedAt"`
	TotalItems    int                                `json:"totalItems"`
	SourcesCount  int                                `json:"sourcesCount"`
	HoursWindow   int                                `json:"hoursWindow"`
	IsIncremental bool                               `json:"isIncremental"`
	FromCache     bool                               `json:"fromCache"`
	Stale         bool                               `json:"stale,omitempty"`
}

// Query parameter defaults and hard caps.
const (
	defaultHours = 6
	maxHours     = 72
	defaultLimit = 2000
	maxLimit     = 5000
)
