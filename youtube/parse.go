package youtube

import (
	"bytes"
	"encoding/xml"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

type timedText struct {
	XMLName xml.Name        `xml:"transcript"`
	Texts   []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Body  string `xml:",chardata"`
}

// parseTimedText decodes timedtext XML. Text is unescaped and stripped of
// markup but otherwise left as delivered; whitespace is not normalized here.
func parseTimedText(data []byte) ([]Snippet, error) {
	var doc timedText

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = xml.HTMLEntity
	dec.Strict = false
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding timedtext XML")
	}

	snippets := make([]Snippet, 0, len(doc.Texts))
	for _, line := range doc.Texts {
		snippets = append(snippets, Snippet{
			Text:     stripTags(html.UnescapeString(line.Body)),
			Start:    parseSeconds(line.Start),
			Duration: parseSeconds(line.Dur),
		})
	}
	return snippets, nil
}

func stripTags(s string) string {
	for _, br := range []string{"<br>", "<br/>", "<br />"} {
		s = strings.ReplaceAll(s, br, " ")
	}
	return tagRe.ReplaceAllString(s, "")
}

func parseSeconds(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
