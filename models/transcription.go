package models

import "time"

type Source string

const (
	SourceYouTube    Source = "youtube"
	SourceFileUpload Source = "file_upload"
	SourceLocalFile  Source = "local_file"
)

// TimestampLayout renders ISO-8601 UTC with microseconds and a Z suffix.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Transcription is the result of an audio transcription. It is also the
// persisted cache entry; Cached is never trusted from storage.
type Transcription struct {
	Success    bool   `json:"success"`
	Transcript string `json:"transcript"`
	Source     Source `json:"source"`
	URL        string `json:"url,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Model      string `json:"model"`
	Cached     bool   `json:"cached"`
	Timestamp  string `json:"timestamp"`
}

// NewTranscription builds a fresh, uncached result stamped with now.
func NewTranscription(source Source, model, text string, now time.Time) *Transcription {
	return &Transcription{
		Success:    true,
		Transcript: text,
		Source:     source,
		Model:      model,
		Cached:     false,
		Timestamp:  now.UTC().Format(TimestampLayout),
	}
}
