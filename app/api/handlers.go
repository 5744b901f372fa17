package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/newswatch/newswatch/app/activity"
	"github.com/newswatch/newswatch/app/cache"
	"github.com/newswatch/newswatch/app/curated"
	"github.com/newswatch/newswatch/app/feed"
	"github.com/newswatch/newswatch/app/sources"
)

func NewHandler(cacheService *cache.Service, composer *feed.Composer, engine *activity.Engine,
	registry *sources.Registry, curatedClient *curated.Client) *Handler {
	return &Handler{
		cacheService: cacheService,
		composer:     composer,
		engine:       engine,
		registry:     registry,
		curated:      curatedClient,
		startedAt:    time.Now(),
	}
}

func (h *Handler) GetNews(c *gin.Context) {
	region := c.DefaultQuery("region", cache.KeyAll)
	if region != cache.KeyAll && !h.registry.IsTrackedRegion(region) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "Invalid region",
			"valid_regions": append([]string{cache.KeyAll}, h.registry.Regions()...),
		})
		return
	}

	hours, ok := parseBoundedInt(c.Query("hours"), defaultHours, maxHours)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hours parameter, expected 1.." + strconv.Itoa(maxHours)})
		return
	}

	limit, ok := parseBoundedInt(c.Query("limit"), defaultLimit, maxLimit)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter, expected 1.." + strconv.Itoa(maxLimit)})
		return
	}

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since parameter, expected RFC3339 timestamp"})
			return
		}
		since = &parsed
	}

	refresh := c.Query("refresh") == "true"

	view, err := h.cacheService.GetFeed(c.Request.Context(), region, refresh)
	if err != nil {
		slog.Error("Feed unavailable and no cache exists", "region", region, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Feed temporarily unavailable"})
		return
	}

	priority := h.curated.Fetch(c.Request.Context(), region)

	result := h.composer.Run(view.Posts, priority, hours, since, limit)

	// Activity is always measured against the canonical post set; a
	// region-scoped response must not zero out every other region's
	// signal.
	activityWindow := result.WindowPosts
	if region != cache.KeyAll {
		if canonical, cerr := h.cacheService.GetFeed(c.Request.Context(), cache.KeyAll, false); cerr == nil {
			activityWindow = feed.Window(canonical.Posts, hours)
		}
	}
	regionActivity := h.engine.Run(activityWindow)

	c.JSON(http.StatusOK, NewsResponse{
		Items:         result.Items,
		Activity:      regionActivity,
		FetchedAt:     view.FetchedAt,
		TotalItems:    result.TotalItems,
		SourcesCount:  h.registry.SourceCount(),
		HoursWindow:   hours,
		IsIncremental: result.IsIncremental,
		FromCache:     view.FromCache,
		Stale:         view.Stale,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"sources":   h.registry.SourceCount(),
		"regions":   len(h.registry.Regions()),
		"baselines": h.engine.BaselineCount(),
	}

	for _, info := range h.cacheService.Entries() {
		if info.Key == cache.KeyAll {
			health["cache_age"] = time.Since(info.FetchedAt).Round(time.Second).String()
			health["cache_fresh"] = info.Fresh
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	entries := h.cacheService.Entries()

	cachedPosts := 0
	for _, info := range entries {
		if info.Key == cache.KeyAll {
			cachedPosts = info.PostCount
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"uptime":       time.Since(h.startedAt).Round(time.Second).String(),
		"sources":      h.registry.SourceCount(),
		"regions":      h.registry.Regions(),
		"cache_keys":   len(entries),
		"cached_posts": cachedPosts,
	})
}

func (h *Handler) APIGetSources(c *gin.Context) {
	srcs := h.registry.AllSources()

	byPlatform := make(map[string]int)
	enabled := 0
	out := make([]gin.H, 0, len(srcs))
	for _, src := range srcs {
		byPlatform[src.Platform]++
		if src.Enabled {
			enabled++
		}
		out = append(out, gin.H{
			"id":            src.ID,
			"platform":      src.Platform,
			"handle":        src.Handle,
			"region":        src.Region,
			"tier":          src.Tier,
			"posts_per_day": src.PostsPerDay,
			"enabled":       src.Enabled,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"sources":     out,
		"total":       len(srcs),
		"enabled":     enabled,
		"by_platform": byPlatform,
	})
}

func (h *Handler) APIGetCache(c *gin.Context) {
	entries := h.cacheService.Entries()
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   len(entries),
	})
}

func (h *Handler) APIPurgeCache(c *gin.Context) {
	if err := h.cacheService.Purge(c.Request.Context()); err != nil {
		slog.Error("Cache purge failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to purge cache",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cache purged, next request will fetch live",
	})
}

// parseBoundedInt validates an optional positive integer query
// parameter, falling back to def and clamping to the hard cap.
func parseBoundedInt(raw string, def, hardCap int) (int, bool) {
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, false
	}
	if value > hardCap {
		return hardCap, true
	}
	return value, true
}
