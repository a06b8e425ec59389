package handlers

import (
	"errors"
	"ev-route-planner/internal/domain"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errTripNotReady = errors.New("trip has not been planned yet")

type errorResponse struct {
	Error string `json:"error"`
}

// respondError writes err with the status it maps to. Unmapped errors are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(code, errorResponse{Error: "internal server error"})
		return
	}
	c.JSON(code, errorResponse{Error: err.Error()})
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidTripRequest):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrTripNotFound),
		errors.Is(err, domain.ErrPlaceNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrNoChoicePending),
		errors.Is(err, errTripNotReady):
		return http.StatusConflict

	case errors.Is(err, domain.ErrInvalidSelection):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domain.ErrGeocodingUnavailable),
		errors.Is(err, domain.ErrRouteUnavailable):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
