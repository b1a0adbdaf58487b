package contract

type UserResponse struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}
