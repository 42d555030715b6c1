package api

import (
	"net/http"
	"strconv"
	"strings"

	"city-ambience/internal/storage"

	"github.com/gin-gonic/gin"
)

func (s *Server) lookupsHandler(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Lookup journal is disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 1000 {
		limit = 100
	}

	var lookups []storage.CityLookup
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		lookups, err = s.journal.GetLookupsByCity(city, limit)
	} else {
		lookups, err = s.journal.GetLookupsWithLimit(limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, lookups)
}

func (s *Server) lookupStatsHandler(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Lookup journal is disabled"})
		return
	}

	stats, err := s.journal.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	top, err := s.journal.GetTopCities(10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":      stats.Total,
		"day":        stats.Day,
		"night":      stats.Night,
		"geocoded":   stats.Geocoded,
		"top_cities": top,
	})
}
