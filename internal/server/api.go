// Package server provides the optional Gin-based local status API. It is a
// read-only window into the poller and the history store for debugging
// sensor selections; nothing here mutates monitor state.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/warbou/hwinfo-oled-monitor/internal/history"
	"github.com/warbou/hwinfo-oled-monitor/internal/hwinfo"
	"github.com/warbou/hwinfo-oled-monitor/internal/poller"
)

// New builds the status API engine. hist may be nil when history is
// disabled; the history route then answers 404.
func New(p *poller.Poller, hist *history.Store) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"state":  p.State().String(),
			"time":   time.Now().UTC(),
		})
	})

	api.GET("/snapshot", func(c *gin.Context) {
		snap := p.Snapshot()
		if snap == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot decoded yet"})
			return
		}
		c.JSON(http.StatusOK, snapshotJSON(snap))
	})

	api.GET("/sensors", func(c *gin.Context) {
		snap := p.Snapshot()
		if snap == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot decoded yet"})
			return
		}
		c.JSON(http.StatusOK, sensorsJSON(snap))
	})

	api.GET("/history/:id", func(c *gin.Context) {
		if hist == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad reading id"})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		rows, err := hist.Latest(uint32(id), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	return r
}

// snapshotJSON flattens a snapshot for transport: readings with their values
// plus the groups they reference.
func snapshotJSON(snap *hwinfo.Snapshot) gin.H {
	readings := make([]gin.H, 0, len(snap.Readings))
	for _, r := range snap.Readings {
		readings = append(readings, gin.H{
			"id":        r.ID,
			"sensor_id": r.SensorID,
			"kind":      r.Kind.String(),
			"label":     r.Label,
			"unit":      r.Unit,
			"value":     r.Value,
			"min":       r.Min,
			"max":       r.Max,
			"avg":       r.Avg,
		})
	}
	groups := make([]gin.H, 0, len(snap.Groups))
	for _, g := range snap.Groups {
		groups = append(groups, gin.H{
			"id":       g.ID,
			"instance": g.Instance,
			"name":     g.Name,
		})
	}
	return gin.H{
		"update_counter": snap.UpdateCounter,
		"taken":          snap.Taken.UTC(),
		"groups":         groups,
		"readings":       readings,
	}
}

// sensorsJSON lists reading metadata only (no values), grouped by sensor
// group, for picking IDs to put in the config.
func sensorsJSON(snap *hwinfo.Snapshot) []gin.H {
	byGroup := make(map[uint32][]gin.H)
	for _, r := range snap.Readings {
		byGroup[r.SensorID] = append(byGroup[r.SensorID], gin.H{
			"id":    r.ID,
			"kind":  r.Kind.String(),
			"label": r.Label,
			"unit":  r.Unit,
		})
	}
	out := make([]gin.H, 0, len(snap.Groups))
	for _, g := range snap.Groups {
		out = append(out, gin.H{
			"id":       g.ID,
			"instance": g.Instance,
			"name":     g.Name,
			"readings": byGroup[g.ID],
		})
	}
	return out
}
