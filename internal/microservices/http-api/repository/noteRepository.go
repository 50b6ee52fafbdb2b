package repository

import (
	"context"

	"sitehub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, userID, noteID string) (*models.Note, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Note, error)
	MarkAsRead(ctx context.Context, userID, noteID string) (bool, error)
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
}

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *models.Note) error {
	return r.db.WithContext(ctx).Create(note).Error
}

// GetByID only finds notes owned by userID
func (r *noteRepository) GetByID(ctx context.Context, userID, noteID string) (*models.Note, error) {
	var note models.Note
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", noteID, userID).
		First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Note, error) {
	var list []models.Note
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("unread = ?", true)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

// MarkAsRead reports whether the note was unread before the call
func (r *noteRepository) MarkAsRead(ctx context.Context, userID, noteID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Note{}).
		Where("id = ? AND user_id = ? AND unread = ?", noteID, userID, true).
		Update("unread", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *noteRepository) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Note{}).
		Where("user_id = ? AND unread = ?", userID, true).
		Update("unread", false)
	return result.RowsAffected, result.Error
}
