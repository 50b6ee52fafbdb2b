package dto

import (
	"time"

	"sitehub/internal/core/notes"
	"sitehub/internal/microservices/http-api/models"
)

// CreateNoteRequest: payload pushed by the sync layer
type CreateNoteRequest struct {
	ID        string  `json:"id" binding:"omitempty,max=64"`
	UserID    string  `json:"user_id" binding:"required"`
	Type      string  `json:"type" binding:"required"`
	BlogID    int64   `json:"blog_id"`
	PostID    int64   `json:"post_id"`
	CommentID int64   `json:"comment_id"`
	Subject   *string `json:"subject"`
	Body      string  `json:"body"`
}

func (r CreateNoteRequest) ToModel() models.Note {
	return models.Note{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      r.Type,
		BlogID:    r.BlogID,
		PostID:    r.PostID,
		CommentID: r.CommentID,
		Subject:   r.Subject,
		Body:      r.Body,
		Unread:    true,
	}
}

type NoteResponse struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	BlogID    int64            `json:"blog_id,omitempty"`
	PostID    int64            `json:"post_id,omitempty"`
	CommentID int64            `json:"comment_id,omitempty"`
	Subject   *string          `json:"subject,omitempty"`
	Body      string           `json:"body,omitempty"`
	Unread    bool             `json:"unread"`
	View      notes.DetailView `json:"view"`
	CreatedAt time.Time        `json:"created_at"`
}

func FromModelToNoteResponse(n models.Note) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		Type:      n.Type,
		BlogID:    n.BlogID,
		PostID:    n.PostID,
		CommentID: n.CommentID,
		Subject:   n.Subject,
		Body:      n.Body,
		Unread:    n.Unread,
		View:      notes.Route(n.ToCore()),
		CreatedAt: n.CreatedAt,
	}
}

// NoteNavigation tells the client which detail screen to push for a note
type NoteNavigation struct {
	Note      NoteResponse     `json:"note"`
	View      notes.DetailView `json:"view"`
	Title     string           `json:"title,omitempty"`
	BlogID    int64            `json:"blog_id,omitempty"`
	PostID    int64            `json:"post_id,omitempty"`
	CommentID int64            `json:"comment_id,omitempty"`
}
