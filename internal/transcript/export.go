package transcript

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	FormatText = "text"
	FormatJSON = "json"

	TextFilename = "extracted_text.txt"
	JSONFilename = "transcript.json"
)

// Artifact is a downloadable rendering of a transcript.
type Artifact struct {
	Filename string
	MIMEType string
	Bytes    []byte
}

type Metadata struct {
	Source    string    `json:"source"`
	BLAKE3    string    `json:"blake3,omitempty"`
	Backend   string    `json:"backend"`
	Model     string    `json:"model,omitempty"`
	Language  string    `json:"language,omitempty"`
	Task      string    `json:"task,omitempty"`
	RunID     string    `json:"run_id"`
	State     string    `json:"state"`
	Windows   int       `json:"windows"`
	Attempted int       `json:"attempted"`
	Generated time.Time `json:"generated"`
}

type jsonDocument struct {
	Text     string   `json:"text"`
	Segments any      `json:"segments"`
	Notices  []Notice `json:"notices,omitempty"`
	Metadata Metadata `json:"metadata"`
}

// Export renders r in the named format.
func Export(format string, r Record, meta Metadata) (Artifact, error) {
	switch format {
	case FormatText, "":
		return PlainText(r), nil
	case FormatJSON:
		return JSON(r, meta)
	default:
		return Artifact{}, fmt.Errorf("unsupported output format %q", format)
	}
}

func PlainText(r Record) Artifact {
	body := r.Text()
	if body != "" {
		body += "\n"
	}
	return Artifact{Filename: TextFilename, MIMEType: "text/plain", Bytes: []byte(body)}
}

// JSON renders the segmented transcript. Segments carry start/end/text when
// any backend reported timing and speaker/text otherwise.
func JSON(r Record, meta Metadata) (Artifact, error) {
	doc := jsonDocument{
		Text:     r.Text(),
		Notices:  r.Notices(),
		Metadata: meta,
	}
	if r.PrefersTimestamps() {
		doc.Segments = nonNil(r.Timed())
	} else {
		doc.Segments = nonNil(r.Speakers())
	}
	if doc.Metadata.State == "" {
		doc.Metadata.State = r.State().String()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("encode transcript: %w", err)
	}
	return Artifact{Filename: JSONFilename, MIMEType: "application/json", Bytes: append(data, '\n')}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
