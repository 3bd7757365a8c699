package models

// Snippet is one timed caption unit. Start and Duration are in seconds.
type Snippet struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns the cue end time in seconds.
func (s Snippet) End() float64 {
	return s.Start + s.Duration
}

// TrackInfo describes a caption track exposed for a video.
type TrackInfo struct {
	Language             string   `json:"language"`
	LanguageCode         string   `json:"languageCode"`
	IsGenerated          bool     `json:"isGenerated"`
	IsTranslatable       bool     `json:"isTranslatable"`
	TranslationLanguages []string `json:"translationLanguages"`
}

// TranscriptResponse is the format=json body of GET /transcript.
type TranscriptResponse struct {
	VideoID        string    `json:"videoId"`
	LanguagesTried []string  `json:"languagesTried"`
	Snippets       []Snippet `json:"snippets"`
}

// AvailableResponse is the body of GET /transcript/available.
type AvailableResponse struct {
	VideoID   string      `json:"videoId"`
	Available []TrackInfo `json:"available"`
}
