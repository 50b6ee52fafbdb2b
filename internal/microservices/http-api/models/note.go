package models

import (
	"time"

	"sitehub/internal/core/notes"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Note struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string    `gorm:"not null" json:"type"` // comment, automattcher, like, follow, ...
	BlogID    int64     `gorm:"default:0" json:"blog_id"`
	PostID    int64     `gorm:"default:0" json:"post_id"`
	CommentID int64     `gorm:"default:0" json:"comment_id"`
	Subject   *string   `json:"subject,omitempty"`
	Body      string    `gorm:"type:text" json:"body"`
	Unread    bool      `gorm:"default:true;index" json:"unread"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BeforeCreate sets a UUID when the sync layer did not supply one
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (Note) TableName() string {
	return "notes"
}

// ToCore converts the row into what the router classifies
func (n *Note) ToCore() notes.Note {
	core := notes.Note{
		ID:        n.ID,
		Type:      notes.NoteType(n.Type),
		BlogID:    n.BlogID,
		PostID:    n.PostID,
		CommentID: n.CommentID,
		Unread:    n.Unread,
	}
	if n.Subject != nil {
		core.Subject = *n.Subject
	}
	return core
}
