package youtube

import (
	"strings"

	"github.com/nijaru/transcript-server/models"
	"github.com/pkg/errors"
)

type TranslationLanguage struct {
	Language     string `json:"language"`
	LanguageCode string `json:"languageCode"`
}

// Track is a single caption track of a video.
type Track struct {
	VideoID              string
	Language             string
	LanguageCode         string
	IsGenerated          bool
	IsTranslatable       bool
	TranslationLanguages []TranslationLanguage

	// BaseURL is the timed-text endpoint for this track.
	BaseURL string
}

func (t Track) CanTranslateTo(languageCode string) bool {
	if !t.IsTranslatable {
		return false
	}
	for _, tl := range t.TranslationLanguages {
		if tl.LanguageCode == languageCode {
			return true
		}
	}
	return false
}

func (t Track) Info() models.TrackInfo {
	codes := make([]string, 0, len(t.TranslationLanguages))
	for _, tl := range t.TranslationLanguages {
		codes = append(codes, tl.LanguageCode)
	}
	return models.TrackInfo{
		Language:             t.Language,
		LanguageCode:         t.LanguageCode,
		IsGenerated:          t.IsGenerated,
		IsTranslatable:       t.IsTranslatable,
		TranslationLanguages: codes,
	}
}

// TranscriptList holds the caption tracks of one video, manually created
// tracks and generated tracks kept apart and in the order YouTube lists them.
type TranscriptList struct {
	VideoID   string
	Manual    []Track
	Generated []Track
}

// Tracks returns every track, manually created ones first.
func (l *TranscriptList) Tracks() []Track {
	out := make([]Track, 0, len(l.Manual)+len(l.Generated))
	out = append(out, l.Manual...)
	return append(out, l.Generated...)
}

// FindTranscript returns the first track matching languageCodes in order,
// preferring a manually created track over a generated one per language.
func (l *TranscriptList) FindTranscript(languageCodes []string) (Track, error) {
	return l.find(languageCodes, l.Manual, l.Generated)
}

func (l *TranscriptList) FindManuallyCreated(languageCodes []string) (Track, error) {
	return l.find(languageCodes, l.Manual)
}

func (l *TranscriptList) FindGenerated(languageCodes []string) (Track, error) {
	return l.find(languageCodes, l.Generated)
}

func (l *TranscriptList) find(languageCodes []string, groups ...[]Track) (Track, error) {
	for _, code := range languageCodes {
		for _, group := range groups {
			for _, t := range group {
				if t.LanguageCode == code {
					return t, nil
				}
			}
		}
	}
	return Track{}, errors.Wrapf(ErrNoTranscriptFound, "video %s, languages [%s]",
		l.VideoID, strings.Join(languageCodes, ", "))
}
