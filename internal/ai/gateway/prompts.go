package gateway

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/edubot-backend/internal/domain"
)

//go:embed prompts.yaml
var promptsYAML []byte

const (
	tmplSystem         = "system"
	tmplLesson         = "lesson"
	tmplQuiz           = "quiz"
	tmplQuizAttachment = "quiz_attachment"
	tmplFeedback       = "feedback"
	tmplTutor          = "tutor"
	tmplChat           = "chat"
	tmplEvaluate       = "evaluate"
)

var requiredTemplates = []string{
	tmplLesson, tmplQuiz, tmplQuizAttachment, tmplFeedback, tmplTutor, tmplChat, tmplEvaluate,
}

type promptFile struct {
	System        string            `yaml:"system"`
	DifficultyMix map[string]string `yaml:"difficulty_mix"`
	Templates     map[string]string `yaml:"templates"`
}

type promptData struct {
	Language   string
	Topic      string
	Difficulty domain.Difficulty
	Mix        string
	Count      int
	Source     string
	Score      int
	Total      int
	Question   string
	Context    string
	Answer     string
	History    []domain.Message
}

// Prompts is the parsed template set.
type Prompts struct {
	tmpl *template.Template
	mix  map[domain.Difficulty]string
}

func LoadPrompts() (*Prompts, error) {
	return ParsePrompts(promptsYAML)
}

func ParsePrompts(raw []byte) (*Prompts, error) {
	var pf promptFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if strings.TrimSpace(pf.System) == "" {
		return nil, fmt.Errorf("parse prompts: missing %q", tmplSystem)
	}
	root := template.New("prompts").Option("missingkey=error")
	if _, err := root.New(tmplSystem).Parse(pf.System); err != nil {
		return nil, fmt.Errorf("parse prompt %q: %w", tmplSystem, err)
	}
	for _, name := range requiredTemplates {
		body, ok := pf.Templates[name]
		if !ok || strings.TrimSpace(body) == "" {
			return nil, fmt.Errorf("parse prompts: missing template %q", name)
		}
		if _, err := root.New(name).Parse(body); err != nil {
			return nil, fmt.Errorf("parse prompt %q: %w", name, err)
		}
	}
	mix := map[domain.Difficulty]string{}
	for k, v := range pf.DifficultyMix {
		d := domain.Difficulty(strings.ToLower(strings.TrimSpace(k)))
		switch d {
		case domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard:
			mix[d] = strings.TrimSpace(v)
		default:
			return nil, fmt.Errorf("parse prompts: unknown difficulty %q", k)
		}
	}
	return &Prompts{tmpl: root, mix: mix}, nil
}

func (p *Prompts) render(name string, data promptData) (string, error) {
	if data.Difficulty != "" && data.Mix == "" {
		data.Mix = p.mix[data.Difficulty]
	}
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
