package draft

import "time"

// Attachment holds metadata and cached text for a reference file.
type Attachment struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Tokens      int       `json:"tokens"`
	AddedAt     time.Time `json:"added_at"`
}
