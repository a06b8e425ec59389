package handlers

import (
	"bytes"
	"context"
	"ev-route-planner/internal/api/dto"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/export"
	"ev-route-planner/internal/ports"
	"ev-route-planner/internal/services"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TripHandler exposes trip planning. A trip request becomes a session that
// may pause for the caller to pick among ambiguous places; once both places
// are known the planner runs inside the same request.
type TripHandler struct {
	planner           *services.TripPlanner
	repo              ports.TripRepository
	sessions          *SessionStore
	defaultMaxDailyKm float64
	logger            *zap.Logger
	now               func() time.Time
}

func NewTripHandler(
	planner *services.TripPlanner,
	repo ports.TripRepository,
	sessions *SessionStore,
	defaultMaxDailyKm float64,
	logger *zap.Logger,
) *TripHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripHandler{
		planner:           planner,
		repo:              repo,
		sessions:          sessions,
		defaultMaxDailyKm: defaultMaxDailyKm,
		logger:            logger,
		now:               time.Now,
	}
}

// Create handles POST /v1/trips.
func (h *TripHandler) Create(c *gin.Context) {
	var req dto.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if origin == "" || destination == "" {
		respondError(c, h.logger, fmt.Errorf("%w: origin and destination are required", domain.ErrInvalidTripRequest))
		return
	}

	km := req.MaxDailyKm
	if km == 0 {
		km = h.defaultMaxDailyKm
	}
	if km <= 0 {
		respondError(c, h.logger, fmt.Errorf("%w: max_daily_km must be positive", domain.ErrInvalidTripRequest))
		return
	}

	var percent float64
	if req.BufferPercent != nil {
		percent = *req.BufferPercent
		if percent < 0 || percent > 100 {
			respondError(c, h.logger, fmt.Errorf("%w: buffer_percent must be between 0 and 100", domain.ErrInvalidTripRequest))
			return
		}
	}

	ctx := c.Request.Context()
	res := h.planner.NewResolution(origin, destination)
	if err := res.Start(ctx); err != nil {
		respondError(c, h.logger, err)
		return
	}

	sess := &Session{
		ID:             uuid.NewString(),
		Resolution:     res,
		MaxDailyMeters: km * 1000,
		BufferFraction: services.EffectiveBuffer(km, percent),
	}
	sess.Lock()
	defer sess.Unlock()

	h.sessions.Add(sess)
	h.planIfReady(ctx, sess)

	status := http.StatusAccepted
	if sess.Trip != nil {
		status = http.StatusCreated
	}
	c.JSON(status, sessionView(sess))
}

// Select handles POST /v1/trips/:id/selection.
func (h *TripHandler) Select(c *gin.Context) {
	sess, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		respondError(c, h.logger, fmt.Errorf("trip %s: %w", c.Param("id"), domain.ErrTripNotFound))
		return
	}

	var req dto.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "index is required"})
		return
	}

	sess.Lock()
	defer sess.Unlock()

	ctx := c.Request.Context()
	wasAwaiting := sess.Resolution.Phase().Awaiting()
	if err := sess.Resolution.Select(ctx, *req.Index); err != nil {
		// A failed lookup after a valid choice leaves the machine idle with
		// nothing left to choose; the caller has to start over.
		if wasAwaiting && sess.Resolution.Phase() == domain.PhaseIdle {
			h.sessions.Delete(sess.ID)
		}
		respondError(c, h.logger, err)
		return
	}

	h.planIfReady(ctx, sess)
	c.JSON(http.StatusOK, sessionView(sess))
}

// Get handles GET /v1/trips/:id. Stored trips outlive their sessions.
func (h *TripHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if sess, ok := h.sessions.Get(id); ok {
		sess.Lock()
		defer sess.Unlock()
		c.JSON(http.StatusOK, sessionView(sess))
		return
	}

	trip, err := h.repo.GetTrip(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.TripSessionResponse{
		ID:    trip.ID,
		Phase: domain.PhaseDone.String(),
		Trip:  dto.NewTripResponse(trip),
	})
}

// KML handles GET /v1/trips/:id/kml.
func (h *TripHandler) KML(c *gin.Context) {
	trip, err := h.lookupTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteKML(&buf, trip); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="trip-%s.kml"`, trip.ID))
	c.Data(http.StatusOK, "application/vnd.google-earth.kml+xml", buf.Bytes())
}

// List handles GET /v1/trips.
func (h *TripHandler) List(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	trips, err := h.repo.ListTrips(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	res := dto.ListTripsResponse{Trips: make([]dto.TripSummary, 0, len(trips))}
	for _, t := range trips {
		res.Trips = append(res.Trips, dto.NewTripSummary(t))
	}
	c.JSON(http.StatusOK, res)
}

func (h *TripHandler) lookupTrip(ctx context.Context, id string) (*domain.Trip, error) {
	if sess, ok := h.sessions.Get(id); ok {
		sess.Lock()
		trip := sess.Trip
		sess.Unlock()
		if trip == nil {
			return nil, fmt.Errorf("trip %s: %w", id, errTripNotReady)
		}
		return trip, nil
	}
	return h.repo.GetTrip(ctx, id)
}

// planIfReady runs the planner once both places are resolved. The caller
// holds the session lock.
func (h *TripHandler) planIfReady(ctx context.Context, sess *Session) {
	res := sess.Resolution
	if res.Phase() != domain.PhaseStaging {
		return
	}

	result := h.planner.Run(ctx, res.Origin(), res.Destination(), sess.MaxDailyMeters, sess.BufferFraction)
	res.Finish()

	sess.Trip = result.Trip(sess.ID, h.now().UTC())
	// A client that hung up mid-plan still gets its partial trip stored.
	if err := h.repo.SaveTrip(context.WithoutCancel(ctx), sess.Trip); err != nil {
		h.logger.Error("save trip failed", zap.String("trip_id", sess.ID), zap.Error(err))
	}
}

func sessionView(sess *Session) dto.TripSessionResponse {
	res := sess.Resolution
	view := dto.TripSessionResponse{
		ID:    sess.ID,
		Phase: res.Phase().String(),
	}
	if role, query, ok := res.Pending(); ok {
		view.PendingRole = string(role)
		view.PendingQuery = query
		view.Candidates = dto.NewCandidates(res.Candidates())
	}
	if sess.Trip != nil {
		view.Trip = dto.NewTripResponse(sess.Trip)
	}
	return view
}
