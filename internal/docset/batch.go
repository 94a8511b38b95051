package docset

import (
	"time"

	"invoicedesk/internal/model"
)

// Upload records one source document that contributed to a batch.
type Upload struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	StoredPath  string `json:"stored_path"`
	Size        int    `json:"size"`
}

// Batch is the persisted result of one normalization pass over a set of
// uploaded files: the merged dataset, its validation warnings, and the
// source documents it came from.
type Batch struct {
	ID        string         `json:"id"`
	Dataset   *model.Dataset `json:"dataset"`
	Warnings  []string       `json:"warnings"`
	Uploads   []Upload       `json:"uploads"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
