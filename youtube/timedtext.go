package youtube

import (
	"encoding/xml"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/nijaru/transcript-server/models"
	"github.com/pkg/errors"
)

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",chardata"`
	} `xml:"text"`
}

var markupPattern = regexp.MustCompile(`<[^>]*>`)

// parseTimedText converts a timed-text XML document into snippets.
func parseTimedText(data []byte) ([]models.Snippet, error) {
	var doc timedText
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(ErrInvalidTranscriptXML, err.Error())
	}

	snippets := make([]models.Snippet, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		if t.Body == "" {
			continue
		}
		start, _ := strconv.ParseFloat(t.Start, 64)
		dur, _ := strconv.ParseFloat(t.Dur, 64)
		text := markupPattern.ReplaceAllString(html.UnescapeString(t.Body), "")
		snippets = append(snippets, models.Snippet{
			Text:     strings.TrimSpace(text),
			Start:    start,
			Duration: dur,
		})
	}
	return snippets, nil
}
