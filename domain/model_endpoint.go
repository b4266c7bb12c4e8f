package domain

import (
	"time"
)

// CREATE TABLE public.model_endpoints (
//     id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     name        TEXT UNIQUE NOT NULL,
//     base_url    TEXT NOT NULL,
//     task        TEXT NOT NULL,
//     api_key     TEXT,
//     status      TEXT DEFAULT 'active',
//     created_at  TIMESTAMPTZ DEFAULT NOW(),
//     updated_at  TIMESTAMPTZ
// );

type ModelEndpoint struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"column:name;unique;not null" json:"name"`
	BaseURL string `gorm:"column:base_url;not null" json:"base_url"`
	Task    string `gorm:"column:task;not null" json:"task"`

	// AES encrypted at rest, decrypted only when a client is built
	APIKey string `gorm:"column:api_key" json:"-"`

	Status    string    `gorm:"column:status;default:active" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ModelEndpoint) TableName() string {
	return "model_endpoints"
}
