// Package format renders transcript snippets as plain text, SRT or WebVTT.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nijaru/transcript-server/models"
)

// Format names a rendering accepted by GET /transcript.
type Format string

const (
	FormatText Format = "txt"
	FormatJSON Format = "json"
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
)

// Parse maps a query value to a Format, defaulting to plain text.
func Parse(value string) Format {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatJSON, FormatSRT, FormatVTT:
		return f
	default:
		return FormatText
	}
}

// ContentType is the media type served for a text rendering.
func (f Format) ContentType() string {
	if f == FormatVTT {
		return "text/vtt"
	}
	return "text/plain"
}

// Text joins the non-empty snippet texts with newlines.
func Text(snippets []models.Snippet) string {
	lines := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if s.Text != "" {
			lines = append(lines, s.Text)
		}
	}
	return strings.Join(lines, "\n")
}

func SRT(snippets []models.Snippet) string {
	lines := make([]string, 0, len(snippets)*4)
	for i, s := range snippets {
		lines = append(lines,
			strconv.Itoa(i+1),
			SRTTimestamp(s.Start)+" --> "+SRTTimestamp(s.End()),
			s.Text,
			"",
		)
	}
	return strings.Join(lines, "\n")
}

func VTT(snippets []models.Snippet) string {
	lines := make([]string, 0, len(snippets)*3+2)
	lines = append(lines, "WEBVTT", "")
	for _, s := range snippets {
		lines = append(lines,
			VTTTimestamp(s.Start)+" --> "+VTTTimestamp(s.End()),
			s.Text,
			"",
		)
	}
	return strings.Join(lines, "\n")
}

// Render produces the body for a text format. JSON is not a text format.
func Render(f Format, snippets []models.Snippet) string {
	switch f {
	case FormatSRT:
		return SRT(snippets)
	case FormatVTT:
		return VTT(snippets)
	default:
		return Text(snippets)
	}
}

// SRTTimestamp formats seconds as HH:MM:SS,mmm.
func SRTTimestamp(seconds float64) string {
	return timestamp(seconds, ',')
}

// VTTTimestamp formats seconds as HH:MM:SS.mmm.
func VTTTimestamp(seconds float64) string {
	return timestamp(seconds, '.')
}

func timestamp(seconds float64, sep byte) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	whole := math.Floor(seconds)
	// round half up; 999.5ms and above carries into the next second
	ms := int64(math.Floor((seconds-whole)*1000 + 0.5))
	total := int64(whole)
	if ms >= 1000 {
		total++
		ms -= 1000
	}

	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, ms)
}
