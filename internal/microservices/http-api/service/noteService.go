package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sitehub/internal/core/notes"
	"sitehub/internal/microservices/http-api/dto"
	"sitehub/internal/microservices/http-api/models"
	"sitehub/internal/microservices/http-api/repository"

	"gorm.io/gorm"
)

const (
	defaultNoteListLimit = 100
	// upstream ids are opaque; this matches the notes.id column
	maxNoteIDLength = 64
)

type NoteService interface {
	List(ctx context.Context, userID string, unreadOnly bool) ([]dto.NoteResponse, error)
	Open(ctx context.Context, userID, noteID string) (*dto.NoteNavigation, error)
	MarkAsRead(ctx context.Context, userID, noteID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	Create(ctx context.Context, note *models.Note) error
}

type noteService struct {
	repo   repository.NoteRepository
	logger *slog.Logger
}

func NewNoteService(repo repository.NoteRepository, logger *slog.Logger) NoteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &noteService{repo: repo, logger: logger}
}

func (s *noteService) List(ctx context.Context, userID string, unreadOnly bool) ([]dto.NoteResponse, error) {
	list, err := s.repo.ListByUser(ctx, userID, unreadOnly, defaultNoteListLimit)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	resp := make([]dto.NoteResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, dto.FromModelToNoteResponse(n))
	}
	return resp, nil
}

// Open loads a note, marks it read and decides which detail view renders it
func (s *noteService) Open(ctx context.Context, userID, noteID string) (*dto.NoteNavigation, error) {
	if noteID == "" {
		return nil, ErrInvalidArgument
	}
	if len(noteID) > maxNoteIDLength {
		return nil, ErrNoteNotFound
	}

	note, err := s.repo.GetByID(ctx, userID, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	if note.Unread {
		if _, err := s.repo.MarkAsRead(ctx, userID, noteID); err != nil {
			// the note still opens, it just stays unread
			s.logger.Warn("note_mark_read_failed", "note_id", noteID, "error", err)
		} else {
			note.Unread = false
		}
	}

	core := note.ToCore()
	view := notes.Route(core)

	nav := &dto.NoteNavigation{
		Note: dto.FromModelToNoteResponse(*note),
		View: view,
	}
	if core.Subject != "" {
		nav.Title = core.Subject
	}
	switch view {
	case notes.PostDetail:
		nav.BlogID = note.BlogID
		nav.PostID = note.PostID
	case notes.CommentDetail:
		nav.BlogID = note.BlogID
		nav.PostID = note.PostID
		nav.CommentID = note.CommentID
	}

	s.logger.Debug("note_opened", "note_id", noteID, "view", view.String())
	return nav, nil
}

func (s *noteService) MarkAsRead(ctx context.Context, userID, noteID string) error {
	if len(noteID) > maxNoteIDLength {
		return ErrNoteNotFound
	}
	changed, err := s.repo.MarkAsRead(ctx, userID, noteID)
	if err != nil {
		return err
	}
	if changed {
		return nil
	}
	// nothing changed: either already read or not ours
	if _, err := s.repo.GetByID(ctx, userID, noteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoteNotFound
		}
		return err
	}
	return nil
}

func (s *noteService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *noteService) Create(ctx context.Context, note *models.Note) error {
	if note == nil || note.UserID == "" || note.Type == "" || len(note.ID) > maxNoteIDLength {
		return ErrInvalidArgument
	}
	return s.repo.Create(ctx, note)
}
