package output

import "time"

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type EventName string

const (
	EventRunStarted       EventName = "run_started"
	EventAlbumStarted     EventName = "album_started"
	EventCatalogSearch    EventName = "catalog_search"
	EventMappingGenerated EventName = "mapping_generated"
	EventReviewCompleted  EventName = "review_completed"
	EventAlbumFinished    EventName = "album_finished"
	EventAlbumFailed      EventName = "album_failed"
	EventRunFinished      EventName = "run_finished"
)

type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Event     EventName      `json:"event"`
	Library   string         `json:"library,omitempty"`
	Album     string         `json:"album,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}
