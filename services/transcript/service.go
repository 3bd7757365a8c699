package transcript

import (
	"context"

	"github.com/nijaru/transcript-server/errors"
	"github.com/nijaru/transcript-server/models"
	"github.com/nijaru/transcript-server/youtube"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const notAvailableMessage = "No transcript available for the requested video."

type service struct {
	source Source
	logger logrus.FieldLogger
}

func NewService(source Source, logger logrus.FieldLogger) Service {
	return &service{source: source, logger: logger}
}

// strategy is one step of the fallback chain.
type strategy struct {
	name string
	run  func(ctx context.Context, f *fetch) ([]models.Snippet, error)
}

// fetch carries the state of a single Fetch call. The track list is
// requested at most once and shared by every list-based strategy.
type fetch struct {
	source    Source
	videoID   string
	languages []string

	listed  bool
	list    *youtube.TranscriptList
	listErr error
}

func (f *fetch) tracks(ctx context.Context) (*youtube.TranscriptList, error) {
	if !f.listed {
		f.list, f.listErr = f.source.List(ctx, f.videoID)
		f.listed = true
	}
	return f.list, f.listErr
}

// fetchFound fetches the track chosen by find.
func (f *fetch) fetchFound(ctx context.Context, find func(*youtube.TranscriptList) (youtube.Track, error)) ([]models.Snippet, error) {
	list, err := f.tracks(ctx)
	if err != nil {
		return nil, err
	}
	track, err := find(list)
	if err != nil {
		return nil, err
	}
	return f.source.FetchTrack(ctx, track, "")
}

var chain = []strategy{
	{
		name: "direct",
		run: func(ctx context.Context, f *fetch) ([]models.Snippet, error) {
			return f.source.Fetch(ctx, f.videoID, f.languages)
		},
	},
	{
		name: "find_transcript",
		run: func(ctx context.Context, f *fetch) ([]models.Snippet, error) {
			return f.fetchFound(ctx, func(l *youtube.TranscriptList) (youtube.Track, error) {
				return l.FindTranscript(f.languages)
			})
		},
	},
	{
		name: "manually_created",
		run: func(ctx context.Context, f *fetch) ([]models.Snippet, error) {
			return f.fetchFound(ctx, func(l *youtube.TranscriptList) (youtube.Track, error) {
				return l.FindManuallyCreated(f.languages)
			})
		},
	},
	{
		name: "generated",
		run: func(ctx context.Context, f *fetch) ([]models.Snippet, error) {
			return f.fetchFound(ctx, func(l *youtube.TranscriptList) (youtube.Track, error) {
				return l.FindGenerated(f.languages)
			})
		},
	},
	{
		name: "any_track",
		run: func(ctx context.Context, f *fetch) ([]models.Snippet, error) {
			list, err := f.tracks(ctx)
			if err != nil {
				return nil, err
			}
			var lastErr error = youtube.ErrNoTranscriptFound
			for _, track := range list.Tracks() {
				snippets, err := f.source.FetchTrack(ctx, track, "")
				if err == nil {
					return snippets, nil
				}
				lastErr = err
			}
			return nil, lastErr
		},
	},
	{
		name: "translated",
		run: func(ctx context.Context, f *fetch) ([]models.Snippet, error) {
			list, err := f.tracks(ctx)
			if err != nil {
				return nil, err
			}
			target := f.languages[0]
			var lastErr error = youtube.ErrNotTranslatable
			for _, track := range list.Tracks() {
				if !track.IsTranslatable {
					continue
				}
				snippets, err := f.source.FetchTrack(ctx, track, target)
				if err == nil {
					return snippets, nil
				}
				lastErr = err
			}
			return nil, lastErr
		},
	},
}

func (s *service) Fetch(ctx context.Context, videoID string, languages []string) ([]models.Snippet, error) {
	const op = "TranscriptService.Fetch"
	if len(languages) == 0 {
		languages = DefaultLanguages
	}

	logger := s.logger.WithFields(logrus.Fields{
		"video_id":  videoID,
		"languages": languages,
	})

	f := &fetch{source: s.source, videoID: videoID, languages: languages}

	var lastErr error
	for _, st := range chain {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		snippets, err := st.run(ctx, f)
		if err == nil {
			logger.WithField("strategy", st.name).Debug("Transcript fetched")
			return snippets, nil
		}

		lastErr = pkgerrors.Wrap(err, st.name)
		logger.WithField("strategy", st.name).WithError(err).Debug("Transcript strategy failed")
	}

	logger.WithError(lastErr).Warn("All transcript strategies failed")
	return nil, errors.NotAvailable(op, lastErr, notAvailableMessage)
}

func (s *service) Available(ctx context.Context, videoID string) ([]models.TrackInfo, error) {
	const op = "TranscriptService.Available"

	list, err := s.source.List(ctx, videoID)
	if err != nil {
		s.logger.WithField("video_id", videoID).WithError(err).Info("Listing transcripts failed")
		return nil, errors.NotAvailable(op, err, err.Error())
	}

	tracks := list.Tracks()
	infos := make([]models.TrackInfo, 0, len(tracks))
	for _, t := range tracks {
		infos = append(infos, t.Info())
	}
	return infos, nil
}
