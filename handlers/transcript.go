package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nijaru/transcript-server/errors"
	"github.com/nijaru/transcript-server/format"
	"github.com/nijaru/transcript-server/models"
	"github.com/nijaru/transcript-server/services/transcript"
	"github.com/nijaru/transcript-server/validation"
)

type TranscriptHandler struct {
	service transcript.Service
	// maxAge is the Cache-Control max-age of text responses; 0 omits the header.
	maxAge int
}

func NewTranscriptHandler(service transcript.Service, maxAge int) *TranscriptHandler {
	return &TranscriptHandler{service: service, maxAge: maxAge}
}

// Get handles GET /transcript.
func (h *TranscriptHandler) Get(c *fiber.Ctx) error {
	const op = "TranscriptHandler.Get"

	videoID, err := videoIDFromQuery(c, op)
	if err != nil {
		return err
	}

	languages := languagesFromQuery(c)
	f := format.Parse(c.Query("format"))

	snippets, err := h.service.Fetch(c.UserContext(), videoID, languages)
	if err != nil {
		return err
	}

	if f == format.FormatJSON {
		return c.JSON(models.TranscriptResponse{
			VideoID:        videoID,
			LanguagesTried: languages,
			Snippets:       snippets,
		})
	}

	body := format.Render(f, snippets)
	filename := fmt.Sprintf("%s.%s", videoID, f)
	return h.sendText(c, body, f.ContentType(), filename, isTruthy(c.Query("download")))
}

// Available handles GET /transcript/available.
func (h *TranscriptHandler) Available(c *fiber.Ctx) error {
	const op = "TranscriptHandler.Available"

	videoID, err := videoIDFromQuery(c, op)
	if err != nil {
		return err
	}

	tracks, err := h.service.Available(c.UserContext(), videoID)
	if err != nil {
		return err
	}

	return c.JSON(models.AvailableResponse{
		VideoID:   videoID,
		Available: tracks,
	})
}

// sendText writes body with a strong ETag and answers a matching
// If-None-Match with 304.
func (h *TranscriptHandler) sendText(c *fiber.Ctx, body, contentType, filename string, attachment bool) error {
	sum := sha256.Sum256([]byte(body))
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	if match := c.Get(fiber.HeaderIfNoneMatch); match != "" && match == etag {
		c.Set(fiber.HeaderETag, etag)
		c.Status(fiber.StatusNotModified)
		return nil
	}

	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}

	c.Set(fiber.HeaderContentType, contentType+"; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`%s; filename="%s"`, disposition, filename))
	c.Set(fiber.HeaderETag, etag)
	if h.maxAge > 0 {
		c.Set(fiber.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", h.maxAge))
	}
	return c.SendString(body)
}

func videoIDFromQuery(c *fiber.Ctx, op string) (string, error) {
	urlOrID := c.Query("url")
	if urlOrID == "" {
		urlOrID = c.Query("id")
	}
	if urlOrID == "" {
		return "", errors.InvalidInput(op, nil, "Missing 'url' or 'id'")
	}

	videoID, ok := validation.ExtractVideoID(urlOrID)
	if !ok {
		return "", errors.InvalidInput(op, nil, "Invalid YouTube URL or ID")
	}
	return videoID, nil
}

// languagesFromQuery collects repeated lang values followed by the
// comma separated languages value.
func languagesFromQuery(c *fiber.Ctx) []string {
	var langs []string
	for _, v := range c.Context().QueryArgs().PeekMulti("lang") {
		if l := strings.TrimSpace(string(v)); l != "" {
			langs = append(langs, l)
		}
	}
	for _, l := range strings.Split(c.Query("languages"), ",") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}

	if len(langs) == 0 {
		return append([]string(nil), transcript.DefaultLanguages...)
	}
	return langs
}

func isTruthy(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes":
		return true
	}
	return false
}
