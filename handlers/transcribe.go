package handlers

import (
	"mime"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nijaru/transcript-server/errors"
	"github.com/nijaru/transcript-server/services/transcription"
)

const missingInputMessage = "Please provide either a 'youtube_url' in JSON or upload an 'audio' file"

type TranscribeHandler struct {
	service transcription.Service
}

func NewTranscribeHandler(service transcription.Service) *TranscribeHandler {
	return &TranscribeHandler{service: service}
}

type transcribeRequest struct {
	YouTubeURL *string `json:"youtube_url"`
}

// Transcribe handles POST /transcribe with either a JSON body naming a
// YouTube URL or a multipart upload in the "audio" field.
func (h *TranscribeHandler) Transcribe(c *fiber.Ctx) error {
	const op = "TranscribeHandler.Transcribe"

	mediaType, _, _ := mime.ParseMediaType(c.Get(fiber.HeaderContentType))

	switch {
	case mediaType == fiber.MIMEApplicationJSON:
		var req transcribeRequest
		if err := c.BodyParser(&req); err != nil {
			return errors.InvalidInput(op, err, "No JSON data provided")
		}
		if req.YouTubeURL == nil {
			return errors.InvalidInput(op, nil, missingInputMessage)
		}

		result, err := h.service.FromURL(c.UserContext(), strings.TrimSpace(*req.YouTubeURL))
		if err != nil {
			return err
		}
		return c.JSON(result)

	case strings.HasPrefix(mediaType, "multipart/"):
		fileHeader, err := c.FormFile("audio")
		if err != nil {
			// a file input submitted without a file arrives as a plain field
			if form, formErr := c.MultipartForm(); formErr == nil {
				if _, ok := form.Value["audio"]; ok {
					return errors.InvalidInput(op, nil, "No file selected")
				}
			}
			return errors.InvalidInput(op, err, missingInputMessage)
		}
		if fileHeader.Filename == "" {
			return errors.InvalidInput(op, nil, "No file selected")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return errors.Internal(op, err, "Error processing audio: could not read upload")
		}
		defer file.Close()

		result, err := h.service.FromUpload(c.UserContext(), fileHeader.Filename, file)
		if err != nil {
			return err
		}
		return c.JSON(result)
	}

	return errors.InvalidInput(op, nil, missingInputMessage)
}

// TranscribeLocal handles POST /transcribe-local.
func (h *TranscribeHandler) TranscribeLocal(c *fiber.Ctx) error {
	result, err := h.service.FromLocalFile(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(result)
}
