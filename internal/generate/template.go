// Package generate produces a fresh session id and interview structure.
package generate

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-interview/internal/interview"
)

// Generated is what a generator hands back to the bootstrapper.
type Generated struct {
	SessionID string              `json:"session_id"`
	Structure interview.Structure `json:"structure"`
}

// TemplateFile is the on-disk YAML form of an interview template.
type TemplateFile struct {
	Title    string              `yaml:"title"`
	Sections []interview.Section `yaml:"sections"`
}

// LoadTemplate reads and validates a YAML template.
func LoadTemplate(path string) (TemplateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TemplateFile{}, fmt.Errorf("generate: read %s: %w", path, err)
	}
	return ParseTemplate(data)
}

func ParseTemplate(data []byte) (TemplateFile, error) {
	var tf TemplateFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return TemplateFile{}, fmt.Errorf("generate: parse template: %w", err)
	}
	if err := tf.Structure().Validate(); err != nil {
		return TemplateFile{}, err
	}
	return tf, nil
}

func (tf TemplateFile) Structure() interview.Structure {
	return interview.Structure{Sections: tf.Sections}
}

// Template hands out the same structure for every session under a new uuid.
type Template struct {
	tf    TemplateFile
	newID func() string
}

func NewTemplate(tf TemplateFile) *Template {
	return &Template{tf: tf, newID: uuid.NewString}
}

func (g *Template) Create(_ context.Context, _ string) (Generated, error) {
	// deep copy so sessions never share section/question slices
	secs := make([]interview.Section, len(g.tf.Sections))
	for i, s := range g.tf.Sections {
		qs := make([]interview.Question, len(s.Questions))
		for j, q := range s.Questions {
			q.Options = append([]string(nil), q.Options...)
			qs[j] = q
		}
		s.Questions = qs
		secs[i] = s
	}
	return Generated{SessionID: g.newID(), Structure: interview.Structure{Sections: secs}}, nil
}
