// Package transcript defines the tag-prefixed transcript protocol: the
// structured in-memory entries CompositeAgent records, their serialization
// to "Tag: content" lines, and the codec that generates or extracts paired
// persona responses from a transcript.
package transcript

import "strings"

// UserTag prefixes user prompts in a transcript.
const UserTag = "user"

// Entry is the canonical in-memory record of one transcript line. Text form
// is produced and consumed only at the serialization edges.
type Entry struct {
	Tag  string
	Text string
}

// Line renders the entry in wire form.
func (e Entry) Line() string {
	return e.Tag + ": " + e.Text
}

// Render serializes entries to transcript text. Every entry becomes one
// "Tag: content" line; a blank line precedes any user entry that is not the
// first entry, separating conversational turns visually.
func Render(entries []Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 && e.Tag == UserTag {
			b.WriteString("\n")
		}
		b.WriteString(e.Line())
		b.WriteString("\n")
	}
	return b.String()
}

// ParseLine splits one transcript line into an entry. Only the first
// ": " occurrence separates tag from content, so colons inside the content
// survive. Lines without a tag separator are rejected.
func ParseLine(line string) (Entry, bool) {
	tag, text, found := strings.Cut(line, ": ")
	if !found || tag == "" {
		return Entry{}, false
	}
	return Entry{Tag: tag, Text: strings.TrimSpace(text)}, true
}

// Parse converts transcript text back into entries, skipping blank
// separator lines and anything that does not parse as a tagged line.
func Parse(text string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if e, ok := ParseLine(line); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// Tagged returns the ordered contents of entries carrying the given tag.
func Tagged(entries []Entry, tag string) []string {
	var out []string
	for _, e := range entries {
		if e.Tag == tag {
			out = append(out, e.Text)
		}
	}
	return out
}
