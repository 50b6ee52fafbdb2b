package handler

import (
	"errors"
	"net/http"

	"sitehub/internal/core/plans"
	"sitehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps domain errors onto HTTP statuses
func writeServiceError(c *gin.Context, err error) {
	var unknown *plans.UnknownPlanError
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoteNotFound),
		errors.Is(err, service.ErrSiteNotFound),
		errors.Is(err, plans.ErrNoPlans):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSiteClaimed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &unknown):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "plan catalog is missing a product",
			"product_id": int64(unknown.ID),
		})
	case errors.Is(err, service.ErrRefreshUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
