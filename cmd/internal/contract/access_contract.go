package contract

import "familynotes/cmd/internal/domain/entity"

type PresetResult string

const (
	PresetGranted        PresetResult = "granted"
	PresetAlreadyGranted PresetResult = "already_granted"
	PresetMemberMissing  PresetResult = "member_missing"
	PresetFailed         PresetResult = "failed"
)

type MemberAccessResponse struct {
	MemberID    int64             `json:"member_id"`
	UserID      int64             `json:"user_id"`
	DisplayName string            `json:"display_name"`
	Role        entity.Role       `json:"role"`
	Implicit    bool              `json:"implicit"`
	Categories  []entity.Category `json:"categories"`
}

type AccessMatrixResponse struct {
	CreatorID  int64                   `json:"creator_id"`
	Categories []entity.Category       `json:"all_categories"`
	Members    []*MemberAccessResponse `json:"members"`
}

type PresetResponse struct {
	MemberID  int64           `json:"member_id"`
	Category  entity.Category `json:"category"`
	CreatedAt string          `json:"created_at"`
}

type PresetApplication struct {
	MemberID int64           `json:"member_id"`
	Category entity.Category `json:"category"`
	Result   PresetResult    `json:"result"`
}

type ApplyPresetsResponse struct {
	Granted int                  `json:"granted"`
	Results []*PresetApplication `json:"results"`
}
