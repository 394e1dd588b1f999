package domain

import "time"

// TrainingEntry is one curated trigger/answer pair consulted by the
// automated responder before falling back to generated text.
type TrainingEntry struct {
	ID        int64
	Trigger   string
	Answer    string
	Category  string
	CreatedAt time.Time
}
