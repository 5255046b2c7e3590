package notifier

import (
	"fmt"
	"strings"
)

const maxMessageLen = 3800

// TradeMessage is the uniform layout for trade lifecycle pushes: a header
// line plus labelled fields rendered in a code block.
type TradeMessage struct {
	Icon   string
	Title  string
	Fields []Field
	Footer string
}

type Field struct {
	Label string
	Value string
}

// F builds a field from any printable value.
func F(label string, value any) Field {
	return Field{Label: label, Value: strings.TrimSpace(fmt.Sprint(value))}
}

// RenderMarkdown produces the Markdown text, trimmed to Telegram's limit.
func (m TradeMessage) RenderMarkdown() string {
	var b strings.Builder
	header := strings.TrimSpace(m.Icon + " " + m.Title)
	if header != "" {
		b.WriteString(header + "\n\n")
	}
	if block := renderFields(m.Fields); block != "" {
		b.WriteString(block)
	}
	if footer := strings.TrimSpace(m.Footer); footer != "" {
		b.WriteString(sanitize(footer))
		b.WriteString("\n")
	}
	body := strings.TrimSpace(b.String())
	if len(body) > maxMessageLen {
		body = body[:maxMessageLen] + "..."
	}
	return body
}

func renderFields(fields []Field) string {
	kept := make([]Field, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Value) != "" {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("```\n")
	for _, f := range kept {
		b.WriteString(sanitize(f.Label))
		b.WriteString(": ")
		b.WriteString(sanitize(f.Value))
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")
	return b.String()
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "```", "'''")
	return strings.TrimSpace(s)
}
