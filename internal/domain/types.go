package domain

// Top-level document keys.
const (
	KeyPhotos       = "photos"
	KeyNextID       = "nextId"
	KeyLastModified = "lastModified"
	KeyServerSaved  = "serverSaved"
)

// ServerSavedLayout formats the human-readable serverSaved stamp.
const ServerSavedLayout = "2006-01-02 15:04:05"

// DefaultCategories are the empty categories returned before anything has been saved.
var DefaultCategories = []string{"ice-breaking", "culturelle", "hackathon", "imlil", "friends"}

type SaveResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Timestamp   int64  `json:"timestamp"`
	TotalPhotos int    `json:"totalPhotos"`
}
