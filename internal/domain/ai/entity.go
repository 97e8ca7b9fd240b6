package ai

import "time"

// Insight is a stored generation result, kept in session state.
type Insight struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
