package dto

import "time"

// TrainingEntryRequest payload for adding a trigger/answer pair.
type TrainingEntryRequest struct {
	Trigger  string `json:"trigger"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

// TrainingEntryResponse is the stored shape of a trigger/answer pair.
type TrainingEntryResponse struct {
	ID        int64     `json:"id"`
	Trigger   string    `json:"trigger"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}
