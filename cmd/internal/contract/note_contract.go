package contract

import "familynotes/cmd/internal/domain/entity"

type NoteRequest struct {
	Title    string   `json:"title" validate:"required,min=2,max=120"`
	Content  string   `json:"content" validate:"required,max=1000000"`
	Category string   `json:"category" validate:"required,category"`
	Tags     []string `json:"tags" validate:"max=50,nodupes,dive,required,min=2,max=30,nospaces"`
}

type UpdateNoteRequest struct {
	Title    *string  `json:"title" validate:"omitempty,min=2,max=120"`
	Content  *string  `json:"content" validate:"omitempty,max=1000000"`
	Category *string  `json:"category" validate:"omitempty,category"`
	Tags     []string `json:"tags" validate:"omitempty,max=50,nodupes,dive,required,min=2,max=30,nospaces"`
}

type NoteResponse struct {
	ID        int64           `json:"id"`
	CreatorID int64           `json:"creator_id"`
	Category  entity.Category `json:"category"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Tags      []string        `json:"tags"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}
