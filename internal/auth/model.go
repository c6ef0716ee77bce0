package auth

import "time"

// Code — одноразовый числовой код подтверждения, привязанный к
// пользователю. Живёт ограниченное окно и гасится ровно одной
// успешной проверкой.
type Code struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	Code       string     `json:"-" db:"code"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty" db:"consumed_at"`
}
