package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"sitehub/internal/core/plans"
	"sitehub/internal/ingestion/planupdate"
	"sitehub/internal/microservices/http-api/dto"
	"sitehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// PlanEvents is the source of live plan updates for one blog
type PlanEvents interface {
	Subscribe(blogID int64) (<-chan planupdate.Event, func())
}

type PlanHandler struct {
	svc    service.PlanService
	events PlanEvents
}

// NewPlanHandler accepts a nil events source, the stream then answers 503
func NewPlanHandler(svc service.PlanService, events PlanEvents) *PlanHandler {
	return &PlanHandler{svc: svc, events: events}
}

func (h *PlanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.PUT("/:blog_id", h.Connect)
	rg.GET("/:blog_id/plans", h.List)
	rg.GET("/:blog_id/plans/:position/purchase", h.PurchaseState)
	rg.POST("/:blog_id/plans/refresh", h.Refresh)
	rg.GET("/:blog_id/plans/events", h.Events)
}

func parseBlogID(c *gin.Context) (int64, bool) {
	blogID, err := strconv.ParseInt(c.Param("blog_id"), 10, 64)
	if err != nil || blogID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid blog id"})
		return 0, false
	}
	return blogID, true
}

// Connect attaches the blog to the caller and queues its first plan refresh
// PUT /api/sites/:blog_id
func (h *PlanHandler) Connect(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	blogID, ok := parseBlogID(c)
	if !ok {
		return
	}

	var req dto.ConnectSiteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	site, err := h.svc.ConnectSite(ctx, userID, blogID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, site)
}

// List returns the plans of a site sorted by rank
// GET /api/sites/:blog_id/plans?position=2
func (h *PlanHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	blogID, ok := parseBlogID(c)
	if !ok {
		return
	}

	restored := plans.NoPosition
	if p := c.Query("position"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position"})
			return
		}
		restored = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.svc.BrowseSite(ctx, userID, blogID, restored)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PurchaseState tells whether the page at position offers a purchase
// GET /api/sites/:blog_id/plans/:position/purchase
func (h *PlanHandler) PurchaseState(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	blogID, ok := parseBlogID(c)
	if !ok {
		return
	}
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	state, err := h.svc.PurchaseState(ctx, userID, blogID, position)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// Refresh queues a plan update for the site
// POST /api/sites/:blog_id/plans/refresh
func (h *PlanHandler) Refresh(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	blogID, ok := parseBlogID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.RequestRefresh(ctx, userID, blogID); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"blog_id": blogID, "status": "queued"})
}

// Events streams plan updates of the site as server-sent events until the
// client goes away
// GET /api/sites/:blog_id/plans/events
func (h *PlanHandler) Events(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	blogID, ok := parseBlogID(c)
	if !ok {
		return
	}
	if h.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "plan updates unavailable"})
		return
	}

	checkCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	err := h.svc.CheckSite(checkCtx, userID, blogID)
	cancel()
	if err != nil {
		writeServiceError(c, err)
		return
	}

	ch, unsubscribe := h.events.Subscribe(blogID)
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	// keeps idle proxies from dropping the stream
	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{})
			c.Writer.Flush()
		case ev, open := <-ch:
			if !open {
				return
			}
			switch e := ev.(type) {
			case planupdate.PlansUpdated:
				c.SSEvent("plans_updated", gin.H{
					"blog_id": e.BlogID,
					"plans":   dto.FromCoreSitePlans(e.Plans),
				})
			case planupdate.PlansUpdateFailed:
				msg := "refresh failed"
				if e.Err != nil {
					msg = e.Err.Error()
				}
				c.SSEvent("plans_update_failed", gin.H{
					"blog_id": e.BlogID,
					"error":   msg,
				})
			default:
				continue
			}
			c.Writer.Flush()
		}
	}
}
