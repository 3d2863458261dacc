// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backup

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/catch-backup/internal/catch"
	"github.com/pdiddy/catch-backup/pkg/types"
)

const (
	filenameTimeLayout = "20060102-150405"
	maxTitleLen        = 32
	noteExt            = ".txt"

	// lineBreaks are the characters that end the title line.
	lineBreaks = "\n\r\v\f\x1c\x1d\x1e\u0085\u2028\u2029"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

var noteTemplate = template.Must(template.New("note").Parse(`
Created Date: {{.CreatedAt}}
Modified Date: {{.ModifiedAt}}
Longitude: {{.Longitude}}
Latitude: {{.Latitude}}
Tags: {{.Tags}}
Attachments: {{.Attachments}}

{{.Text}}
`))

type noteView struct {
	CreatedAt   string
	ModifiedAt  string
	Longitude   string
	Latitude    string
	Tags        string
	Attachments string
	Text        string
}

// NoteFilename derives the export filename for n:
// "<Title>-<id>-<YYYYMMDD-HHMMSS>.txt", where Title is the first line of the
// text reduced to at most 32 ASCII letters and digits and is omitted with
// its hyphen when empty. The creation time is used, falling back to the
// modification time and then to the Unix epoch.
func NoteFilename(n types.Note) string {
	var b strings.Builder
	if title := titlePrefix(n.Text); title != "" {
		b.WriteString(title)
		b.WriteByte('-')
	}
	fmt.Fprintf(&b, "%s-%s%s", n.ID, filenameTime(n).Format(filenameTimeLayout), noteExt)
	return b.String()
}

func titlePrefix(text string) string {
	first := text
	if i := strings.IndexAny(text, lineBreaks); i >= 0 {
		first = text[:i]
	}
	title := nonAlnum.ReplaceAllString(first, "")
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}
	return title
}

func filenameTime(n types.Note) time.Time {
	switch {
	case n.CreatedAt != nil:
		return n.CreatedAt.UTC()
	case n.ModifiedAt != nil:
		return n.ModifiedAt.UTC()
	default:
		return time.Unix(0, 0).UTC()
	}
}

// RenderNote returns the plain-text export of n. attachments are the paths
// of the files written for the note's media. Absent values render empty.
func RenderNote(n types.Note, attachments []string) (string, error) {
	v := noteView{
		CreatedAt:   formatTimestamp(n.CreatedAt),
		ModifiedAt:  formatTimestamp(n.ModifiedAt),
		Tags:        renderTags(n.Tags),
		Attachments: strings.Join(attachments, " "),
		Text:        n.Text,
	}
	v.Longitude, v.Latitude, _ = n.Coordinates()

	var b strings.Builder
	if err := noteTemplate.Execute(&b, v); err != nil {
		return "", fmt.Errorf("rendering note %s: %w", n.ID, err)
	}
	return b.String(), nil
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(catch.TimestampLayout)
}

func renderTags(tags []string) string {
	hashed := make([]string, len(tags))
	for i, tag := range tags {
		hashed[i] = "#" + tag
	}
	return strings.Join(hashed, " ")
}
