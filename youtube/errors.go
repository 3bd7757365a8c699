package youtube

import "github.com/pkg/errors"

var (
	ErrVideoUnavailable     = errors.New("the video is no longer available")
	ErrVideoUnplayable      = errors.New("the video is unplayable")
	ErrTooManyRequests      = errors.New("YouTube is receiving too many requests from this IP")
	ErrTranscriptsDisabled  = errors.New("subtitles are disabled for this video")
	ErrNoTranscriptFound    = errors.New("no transcript found for the requested languages")
	ErrNotTranslatable      = errors.New("the requested transcript is not translatable")
	ErrTranslationLanguage  = errors.New("the requested translation language is not available")
	ErrInvalidTranscriptXML = errors.New("could not parse transcript data")
)
