// Package status provides the HTTP surface for observing the coordinator
// and reading world state.
package status

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kneutral-org/simsync/internal/coordinator"
	"github.com/kneutral-org/simsync/internal/world"
)

// Handler serves lock state and world reads over HTTP. World reads go
// through the accessor's non-blocking path: while the main context holds
// the exclusive lock the endpoints answer 503 instead of parking request
// goroutines behind the simulation tick.
type Handler struct {
	coord    *coordinator.Coordinator
	accessor *world.Accessor
	logger   zerolog.Logger
}

// NewHandler creates a status handler with the provided dependencies.
func NewHandler(coord *coordinator.Coordinator, accessor *world.Accessor, logger zerolog.Logger) *Handler {
	return &Handler{
		coord:    coord,
		accessor: accessor,
		logger:   logger.With().Str("component", "status").Logger(),
	}
}

// RegisterRoutes registers all status routes on the provided router group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/lock", h.LockState)
	router.GET("/entities", h.ListEntities)
	router.GET("/entities/:id", h.GetEntity)
	router.POST("/raycast", h.RayCast)
}

// LockState returns the coordinator's observable state.
func (h *Handler) LockState(c *gin.Context) {
	c.JSON(http.StatusOK, h.coord.State())
}

// ListEntities returns a snapshot of all entities, or 503 while the
// main context holds the exclusive lock.
func (h *Handler) ListEntities(c *gin.Context) {
	entities, ok := h.accessor.TryEntities()
	if !ok {
		h.respondBusy(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entities": entities, "count": len(entities)})
}

// GetEntity returns a single entity by ID.
func (h *Handler) GetEntity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity id"})
		return
	}

	entity, ok := h.accessor.TryEntityByID(id)
	if !ok {
		h.respondBusy(c)
		return
	}
	if entity == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entity not found"})
		return
	}
	c.JSON(http.StatusOK, entity)
}

// raycastRequest is the POST /raycast body.
type raycastRequest struct {
	Origin      world.Vec3 `json:"origin"`
	Direction   world.Vec3 `json:"direction"`
	MaxDistance float64    `json:"maxDistance" binding:"required,gt=0"`
}

// RayCast casts a ray through the world and returns the nearest hit,
// 404 on a miss, or 503 while the main context holds the exclusive lock.
func (h *Handler) RayCast(c *gin.Context) {
	var req raycastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid raycast request: " + err.Error()})
		return
	}

	hit, ok := h.accessor.TryRayCast(req.Origin, req.Direction, req.MaxDistance)
	if !ok {
		h.respondBusy(c)
		return
	}
	if hit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no entity hit"})
		return
	}
	c.JSON(http.StatusOK, hit)
}

func (h *Handler) respondBusy(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "world busy, main context holds exclusive lock"})
}
