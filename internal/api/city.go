package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"city-ambience/internal/citycontext"
	"city-ambience/internal/clock"

	"github.com/gin-gonic/gin"
)

const (
	pageTitle    = "Городская платформа"
	buildFailure = "Не удалось собрать данные о городе, попробуйте позже"
)

// requireCity reads the city query parameter, answering 400 when it is
// missing.
func requireCity(c *gin.Context) (string, bool) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city parameter is required"})
		return "", false
	}
	return city, true
}

func (s *Server) upstreamContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.timeout)
}

func (s *Server) indexHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title": pageTitle,
	})
}

func (s *Server) cityPageHandler(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		s.renderError(c, http.StatusBadRequest, city, "Не указан город")
		return
	}

	cityCtx, err := s.buildContext(c.Request.Context(), citycontext.Query{Name: city, CountryHint: c.Query("country")})
	if err != nil {
		log.Printf("City page for %q failed: %v", city, err)
		s.renderError(c, http.StatusInternalServerError, city, buildFailure)
		return
	}

	s.record(&cityCtx)

	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":   fmt.Sprintf("%s - %s", cityCtx.City, pageTitle),
		"context": cityCtx,
	})
}

// buildContext turns a panic on the request goroutine into an error as
// well; panics inside pipeline stages already come back from Build.
func (s *Server) buildContext(ctx context.Context, q citycontext.Query) (out citycontext.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("building city context: %v", r)
		}
	}()
	return s.pipeline.Build(ctx, q)
}

func (s *Server) record(cityCtx *citycontext.Context) {
	if s.journal != nil {
		if err := s.journal.SaveLookup(cityCtx); err != nil {
			log.Printf("Error saving lookup: %v", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(cityCtx); err != nil {
			log.Printf("Error publishing to MQTT: %v", err)
		}
	}
}

func (s *Server) renderError(c *gin.Context, status int, city, message string) {
	c.HTML(status, "error.html", gin.H{
		"title":         pageTitle,
		"city":          city,
		"error":         true,
		"error_message": message,
	})
}

func (s *Server) timezoneHandler(c *gin.Context) {
	city, ok := requireCity(c)
	if !ok {
		return
	}
	tz, _ := s.pipeline.Timezone(c.Request.Context(), citycontext.Query{Name: city, CountryHint: c.Query("country")})
	c.JSON(http.StatusOK, gin.H{"timezone": tz})
}

func (s *Server) localTimeHandler(c *gin.Context) {
	city, ok := requireCity(c)
	if !ok {
		return
	}
	lt := s.pipeline.LocalTime(c.Request.Context(), citycontext.Query{Name: city, CountryHint: c.Query("country")})
	c.JSON(http.StatusOK, gin.H{
		"local_time": lt.Formatted,
		"hour":       lt.Hour,
	})
}

func (s *Server) weatherHandler(c *gin.Context) {
	city, ok := requireCity(c)
	if !ok {
		return
	}
	ctx, cancel := s.upstreamContext(c)
	defer cancel()
	c.JSON(http.StatusOK, s.weather.Report(ctx, city))
}

func (s *Server) radioHandler(c *gin.Context) {
	city, ok := requireCity(c)
	if !ok {
		return
	}
	ctx, cancel := s.upstreamContext(c)
	defer cancel()
	c.JSON(http.StatusOK, gin.H{
		"city":      city,
		"radio_url": s.radio.URL(ctx, city),
	})
}

func (s *Server) radioStationsHandler(c *gin.Context) {
	city, ok := requireCity(c)
	if !ok {
		return
	}
	ctx, cancel := s.upstreamContext(c)
	defer cancel()
	c.JSON(http.StatusOK, gin.H{
		"city":     city,
		"stations": s.radio.Stations(ctx, city),
	})
}

func (s *Server) cameraHandler(c *gin.Context) {
	city, ok := requireCity(c)
	if !ok {
		return
	}
	ctx, cancel := s.upstreamContext(c)
	defer cancel()

	webcams, err := s.webcams.List(ctx, city)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"city":  city,
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"city":    city,
		"webcams": webcams,
	})
}

func (s *Server) webcamURLHandler(c *gin.Context) {
	city, ok := requireCity(c)
	if !ok {
		return
	}
	ctx, cancel := s.upstreamContext(c)
	defer cancel()
	c.JSON(http.StatusOK, s.webcams.Link(ctx, city))
}

func (s *Server) citySoundHandler(c *gin.Context) {
	period := clock.ParsePeriod(c.Query("time_of_day"))
	c.JSON(http.StatusOK, gin.H{"sound_url": s.sounds.PickOne(period)})
}
