// Package naming renders clip file names from user templates such as
// "{clip_date} ¦ {game_name} ¦ {clip_title}".
//
// A template is literal text mixed with placeholders in braces. Literal braces
// are written doubled ("{{" and "}}"). Every rendered name ends in Extension.
package naming

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var ErrTemplate = errors.New("invalid file name template")

const Extension = ".mp4"

const (
	ClipDate        = "clip_date"
	GameName        = "game_name"
	ClipTitle       = "clip_title"
	ClipCreator     = "clip_creator"
	BroadcasterName = "broadcaster_name"
)

var Placeholders = []string{ClipDate, GameName, ClipTitle, ClipCreator, BroadcasterName}

type SchemaToken struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Schema lists the building blocks a settings screen offers for templates.
var Schema = []SchemaToken{
	{Label: "Date", Value: "{" + ClipDate + "}"},
	{Label: "Game", Value: "{" + GameName + "}"},
	{Label: "Title", Value: "{" + ClipTitle + "}"},
	{Label: "Creator", Value: "{" + ClipCreator + "}"},
	{Label: "Broadcaster", Value: "{" + BroadcasterName + "}"},
	{Label: " ¦ ", Value: " ¦ "},
}

// Fields are the values substituted into a template.
type Fields struct {
	ClipDate        string `json:"clip_date"`
	GameName        string `json:"game_name"`
	ClipTitle       string `json:"clip_title"`
	ClipCreator     string `json:"clip_creator"`
	BroadcasterName string `json:"broadcaster_name"`
}

func (f *Fields) ref(name string) *string {
	switch name {
	case ClipDate:
		return &f.ClipDate
	case GameName:
		return &f.GameName
	case ClipTitle:
		return &f.ClipTitle
	case ClipCreator:
		return &f.ClipCreator
	case BroadcasterName:
		return &f.BroadcasterName
	}
	return nil
}

type segment struct {
	literal     string
	placeholder string
}

func parseTemplate(tmpl string) ([]segment, error) {
	var (
		segments []segment
		lit      strings.Builder
	)

	flush := func() {
		if lit.Len() > 0 {
			segments = append(segments, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(tmpl); i++ {
		switch ch := tmpl[i]; ch {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}

			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed '{' at offset %d", ErrTemplate, i)
			}

			name := tmpl[i+1 : i+1+end]
			if !slices.Contains(Placeholders, name) {
				return nil, fmt.Errorf("%w: unknown placeholder {%s}", ErrTemplate, name)
			}

			flush()
			segments = append(segments, segment{placeholder: name})
			i += end + 1

		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("%w: single '}' at offset %d", ErrTemplate, i)

		default:
			lit.WriteByte(ch)
		}
	}

	flush()
	return segments, nil
}

// Validate reports whether tmpl only uses known placeholders and is well formed.
func Validate(tmpl string) error {
	_, err := parseTemplate(tmpl)
	return err
}

// Render substitutes fields into tmpl and appends Extension. Field values are
// used as given; callers sanitize them first.
func Render(fields Fields, tmpl string) (string, error) {
	segments, err := parseTemplate(tmpl)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, s := range segments {
		if s.placeholder == "" {
			sb.WriteString(s.literal)
			continue
		}
		sb.WriteString(*fields.ref(s.placeholder))
	}
	sb.WriteString(Extension)

	return sb.String(), nil
}

// Parse recovers the field values from a name rendered with tmpl. Templates
// with two placeholders next to each other are ambiguous and rejected.
func Parse(filename, tmpl string) (Fields, error) {
	var fields Fields

	segments, err := parseTemplate(tmpl)
	if err != nil {
		return fields, err
	}

	name, ok := strings.CutSuffix(filename, Extension)
	if !ok {
		return fields, fmt.Errorf("%w: %q does not end in %s", ErrTemplate, filename, Extension)
	}

	var (
		expr  strings.Builder
		order []string
	)
	expr.WriteString(`(?s)^`)
	for i, s := range segments {
		if s.placeholder == "" {
			expr.WriteString(regexp.QuoteMeta(s.literal))
			continue
		}
		if i > 0 && segments[i-1].placeholder != "" {
			return fields, fmt.Errorf("%w: adjacent placeholders cannot be recovered", ErrTemplate)
		}
		expr.WriteString(`(.*?)`)
		order = append(order, s.placeholder)
	}
	expr.WriteString(`$`)

	m := regexp.MustCompile(expr.String()).FindStringSubmatch(name)
	if m == nil {
		return fields, fmt.Errorf("%w: %q does not match the template", ErrTemplate, filename)
	}

	seen := make(map[string]bool, len(order))
	for i, placeholder := range order {
		dst := fields.ref(placeholder)
		if seen[placeholder] && *dst != m[i+1] {
			return fields, fmt.Errorf("%w: conflicting values for {%s}", ErrTemplate, placeholder)
		}
		*dst = m[i+1]
		seen[placeholder] = true
	}

	return fields, nil
}

var illegal = strings.NewReplacer(
	"<", "", ">", "", ":", "", `"`, "", "/", "", `\`, "", "|", "",
	"?", "", "*", "", ".", "", "'", "", "’", "", "‘", "",
)

// Sanitize strips characters that break file names or shell handling on
// common filesystems.
func Sanitize(s string) string {
	return strings.TrimSpace(illegal.Replace(s))
}
