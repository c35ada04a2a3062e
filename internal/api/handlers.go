package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marshallshelly/superheroes/internal/models"
	"github.com/marshallshelly/superheroes/internal/serialize"
	"github.com/marshallshelly/superheroes/pkg/runtime"
)

const (
	heroNotFound  = "Hero not found"
	powerNotFound = "Power not found"
)

type patchPowerRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type createHeroPowerRequest struct {
	Strength string `json:"strength" binding:"required"`
	HeroID   int64  `json:"hero_id" binding:"required"`
	PowerID  int64  `json:"power_id" binding:"required"`
}

// pathID parses :id. Non-numeric ids match no row.
func pathID(c *gin.Context, missing string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": missing})
		return 0, false
	}
	return id, true
}

// fail writes err as a JSON response. Validation and constraint errors are
// the client's fault; not found uses the route's message.
func (s *Server) fail(c *gin.Context, err error, missing string) {
	ctx := c.Request.Context()

	var ve *runtime.ValidationError
	switch {
	case errors.As(err, &ve):
		s.metrics.validations.WithLabelValues(ve.Field).Inc()
		s.logger.WarnContext(ctx, "validation failed", "field", ve.Field, "error", ve.Message)
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{ve.Message}})
	case errors.Is(err, runtime.ErrForeignKeyViolation):
		s.logger.WarnContext(ctx, "missing reference", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"hero_id and power_id must reference existing rows"}})
	case errors.Is(err, runtime.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": missing})
	default:
		s.logger.ErrorContext(ctx, "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (s *Server) listHeroes(c *gin.Context) {
	heroes, err := s.store.ListHeroes(c.Request.Context())
	if err != nil {
		s.fail(c, err, heroNotFound)
		return
	}
	out := make([]serialize.Node, 0, len(heroes))
	for i := range heroes {
		out = append(out, serialize.HeroSummary(&heroes[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getHero(c *gin.Context) {
	id, ok := pathID(c, heroNotFound)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	h, err := s.store.GetHero(ctx, id)
	if err != nil {
		s.fail(c, err, heroNotFound)
		return
	}
	node, err := serialize.Hero(ctx, s.store, h, serialize.HeroRules)
	if err != nil {
		s.fail(c, err, heroNotFound)
		return
	}
	c.JSON(http.StatusOK, node)
}

func (s *Server) deleteHero(c *gin.Context) {
	id, ok := pathID(c, heroNotFound)
	if !ok {
		return
	}
	if err := s.store.DeleteHero(c.Request.Context(), id); err != nil {
		s.fail(c, err, heroNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listPowers(c *gin.Context) {
	powers, err := s.store.ListPowers(c.Request.Context())
	if err != nil {
		s.fail(c, err, powerNotFound)
		return
	}
	out := make([]serialize.Node, 0, len(powers))
	for i := range powers {
		out = append(out, serialize.PowerSummary(&powers[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getPower(c *gin.Context) {
	id, ok := pathID(c, powerNotFound)
	if !ok {
		return
	}
	p, err := s.store.GetPower(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err, powerNotFound)
		return
	}
	c.JSON(http.StatusOK, serialize.PowerSummary(p))
}

func (s *Server) patchPower(c *gin.Context) {
	id, ok := pathID(c, powerNotFound)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	p, err := s.store.GetPower(ctx, id)
	if err != nil {
		s.fail(c, err, powerNotFound)
		return
	}

	var req patchPowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{err.Error()}})
		return
	}
	if req.Name != nil {
		p.SetName(*req.Name)
	}
	if req.Description != nil {
		if err := p.SetDescription(*req.Description); err != nil {
			s.fail(c, err, powerNotFound)
			return
		}
	}

	if err := s.store.UpdatePower(ctx, p); err != nil {
		s.fail(c, err, powerNotFound)
		return
	}
	c.JSON(http.StatusOK, serialize.PowerSummary(p))
}

func (s *Server) deletePower(c *gin.Context) {
	id, ok := pathID(c, powerNotFound)
	if !ok {
		return
	}
	if err := s.store.DeletePower(c.Request.Context(), id); err != nil {
		s.fail(c, err, powerNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) createHeroPower(c *gin.Context) {
	var req createHeroPowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{err.Error()}})
		return
	}

	ctx := c.Request.Context()
	hp, err := models.NewHeroPower(req.HeroID, req.PowerID, req.Strength)
	if err != nil {
		s.fail(c, err, "")
		return
	}
	if err := s.store.CreateHeroPower(ctx, hp); err != nil {
		s.fail(c, err, "")
		return
	}

	node, err := serialize.HeroPower(ctx, s.store, hp, serialize.HeroPowerRules)
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, node)
}
