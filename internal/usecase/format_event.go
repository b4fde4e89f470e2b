package usecase

import (
	"encoding"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/V4T54L/eventbridge/internal/adapter/pii"
	"github.com/V4T54L/eventbridge/internal/domain"
)

// FormatEvent renders event as the text handed to the sink:
//
//	<EventName>: <message>
//
//	source=<source name>
//	source_id=<source identity>
//	version=<event version>
//	@<field>=<value>
//
// Payload lines are only written when settings.IncludePayload is set. Fields
// classified as sensitive always render as pii.RedactedPlaceholder, in the
// payload lines and in the message, whatever the configured transform.
func FormatEvent(event domain.RawEvent, settings *domain.SourceSettings, classify domain.Classifier) (string, error) {
	text, _, err := formatEvent(event, settings, classify)
	return text, err
}

// formatEvent is FormatEvent that also reports how many values were redacted.
func formatEvent(event domain.RawEvent, settings *domain.SourceSettings, classify domain.Classifier) (text string, redacted int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, redacted = "", 0
			// The panic value may hold a sensitive payload value, so only its type is reported.
			err = &domain.FormatError{EventName: event.EventName, Err: fmt.Errorf("panic: %T", r)}
		}
	}()

	fields := newFieldRenderer(event, settings, classify)

	message, err := resolveMessage(event.Message, fields)
	if err != nil {
		return "", 0, &domain.FormatError{EventName: event.EventName, Err: err}
	}

	var b strings.Builder
	b.WriteString(event.EventName)
	b.WriteString(": ")
	b.WriteString(message)
	b.WriteString("\n\n")
	b.WriteString("source=" + event.SourceName + "\n")
	b.WriteString("source_id=" + event.SourceID.String() + "\n")
	b.WriteString("version=" + strconv.Itoa(int(event.Version)))

	if settings.IncludePayload {
		for i, f := range event.Payload {
			value, err := fields.render(i)
			if err != nil {
				return "", 0, &domain.FormatError{EventName: event.EventName, Err: err}
			}
			b.WriteString("\n@" + f.Name + "=" + value)
		}
	}

	return b.String(), fields.redacted, nil
}

// fieldRenderer renders each payload value at most once.
type fieldRenderer struct {
	event     domain.RawEvent
	transform domain.PayloadTransform
	classify  domain.Classifier
	values    []*string
	redacted  int
}

func newFieldRenderer(event domain.RawEvent, settings *domain.SourceSettings, classify domain.Classifier) *fieldRenderer {
	if classify == nil {
		classify = func(int, int) domain.Classification { return domain.Normal }
	}
	return &fieldRenderer{
		event:     event,
		transform: settings.Transform,
		classify:  classify,
		values:    make([]*string, len(event.Payload)),
	}
}

func (r *fieldRenderer) render(i int) (string, error) {
	if v := r.values[i]; v != nil {
		return *v, nil
	}

	var out string
	if r.classify(r.event.EventID, i) == domain.Sensitive {
		out = pii.RedactedPlaceholder
		r.redacted++
	} else {
		field := r.event.Payload[i]
		value := field.Value
		if r.transform != nil {
			value = r.transform(field.Name, value)
		}
		s, err := stringify(value)
		if err != nil {
			return "", fmt.Errorf("payload field %s: %w", field.Name, err)
		}
		out = s
	}
	r.values[i] = &out
	return out, nil
}

// resolveMessage replaces {N} placeholders with rendered payload values.
// Placeholders that do not name a payload field are kept as written.
func resolveMessage(template string, fields *fieldRenderer) (string, error) {
	if !strings.Contains(template, "{") {
		return template, nil
	}

	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end += open

		b.WriteString(rest[:open])
		idx, ok := placeholderIndex(rest[open+1 : end])
		if !ok || idx >= len(fields.values) {
			b.WriteString(rest[open : end+1])
		} else {
			value, err := fields.render(idx)
			if err != nil {
				return "", err
			}
			b.WriteString(value)
		}
		rest = rest[end+1:]
	}
}

// placeholderIndex parses the index of a {N} placeholder. Only unsigned
// ASCII digits are accepted.
func placeholderIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// stringify returns the default string form of a payload value.
func stringify(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return x, nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case error:
		return x.Error(), nil
	case encoding.TextMarshaler:
		text, err := x.MarshalText()
		if err != nil {
			return "", err
		}
		return string(text), nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return fmt.Sprint(x), nil
	}
}
