package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"sitehub/internal/microservices/http-api/dto"
	"sitehub/internal/microservices/http-api/middleware"
	"sitehub/internal/microservices/http-api/service"
	"sitehub/internal/shared"

	"github.com/gin-gonic/gin"
)

type NoteHandler struct {
	svc service.NoteService
}

func NewNoteHandler(svc service.NoteService) *NoteHandler {
	return &NoteHandler{svc: svc}
}

func (h *NoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.PUT("/read-all", h.MarkAllAsRead)
	rg.GET("/:id", h.Open)
	rg.PUT("/:id/read", h.MarkAsRead)

	// the sync layer pushes notes with an admin token
	rg.POST("", middleware.RequireAdmin(), h.Create)
}

// List returns the notes of the authenticated user, newest first
// GET /api/notes?unread=true
func (h *NoteHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	list, err := h.svc.List(ctx, userID, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notes": list})
}

// Open marks a note read and returns the detail view to push
// GET /api/notes/:id
func (h *NoteHandler) Open(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	nav, err := h.svc.Open(ctx, userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, nav)
}

// MarkAsRead marks a specific note as read
// PUT /api/notes/:id/read
func (h *NoteHandler) MarkAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.MarkAsRead(ctx, userID, c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllAsRead marks all notes as read for the user
// PUT /api/notes/read-all
func (h *NoteHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	n, err := h.svc.MarkAllAsRead(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// Create stores a note delivered by the sync layer
// POST /api/notes
func (h *NoteHandler) Create(c *gin.Context) {
	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	note := req.ToModel()
	if err := h.svc.Create(ctx, &note); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromModelToNoteResponse(note))
}

func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(shared.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return "", false
	}
	return userID, true
}
