package youtube

import (
	"strings"

	"github.com/pkg/errors"
)

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		Renderer *struct {
			CaptionTracks        []captionTrack `json:"captionTracks"`
			TranslationLanguages []struct {
				LanguageCode string   `json:"languageCode"`
				LanguageName textRuns `json:"languageName"`
			} `json:"translationLanguages"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL        string   `json:"baseUrl"`
	Name           textRuns `json:"name"`
	LanguageCode   string   `json:"languageCode"`
	Kind           string   `json:"kind"`
	IsTranslatable bool     `json:"isTranslatable"`
}

type textRuns struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t textRuns) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var b strings.Builder
	for _, r := range t.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

func buildTranscriptList(videoID string, player *playerResponse) (*TranscriptList, error) {
	switch status := player.PlayabilityStatus; status.Status {
	case "", "OK":
	case "ERROR":
		return nil, errors.Wrapf(ErrVideoUnavailable, "video %s: %s", videoID, status.Reason)
	case "LOGIN_REQUIRED":
		if strings.Contains(status.Reason, "not a bot") {
			return nil, errors.Wrapf(ErrTooManyRequests, "video %s: %s", videoID, status.Reason)
		}
		return nil, errors.Wrapf(ErrVideoUnplayable, "video %s: %s", videoID, status.Reason)
	default:
		return nil, errors.Wrapf(ErrVideoUnplayable, "video %s: %s", videoID, status.Reason)
	}

	if player.Captions == nil || player.Captions.Renderer == nil || len(player.Captions.Renderer.CaptionTracks) == 0 {
		return nil, errors.Wrapf(ErrTranscriptsDisabled, "video %s", videoID)
	}
	renderer := player.Captions.Renderer

	translations := make([]TranslationLanguage, 0, len(renderer.TranslationLanguages))
	for _, tl := range renderer.TranslationLanguages {
		translations = append(translations, TranslationLanguage{
			Language:     tl.LanguageName.String(),
			LanguageCode: tl.LanguageCode,
		})
	}

	list := &TranscriptList{VideoID: videoID}
	for _, ct := range renderer.CaptionTracks {
		track := Track{
			VideoID:        videoID,
			Language:       ct.Name.String(),
			LanguageCode:   ct.LanguageCode,
			IsGenerated:    ct.Kind == "asr",
			IsTranslatable: ct.IsTranslatable && len(translations) > 0,
			BaseURL:        ct.BaseURL,
		}
		if track.IsTranslatable {
			track.TranslationLanguages = translations
		}

		if track.IsGenerated {
			list.Generated = append(list.Generated, track)
		} else {
			list.Manual = append(list.Manual, track)
		}
	}
	return list, nil
}
