// Package rehydrate restores real entity names in model output.
package rehydrate

import (
	"reflect"
	"regexp"
	"strings"

	"finsight/internal/privacy/tokenize"
)

// tokenPattern matches any kind-prefixed token. The greedy digit run keeps
// matches whole, so Account_3 never matches inside Account_30. The preceding
// character is checked separately in ConvertResponse: `_` and punctuation
// (markdown emphasis) may precede a token, letters and digits may not.
var tokenPattern = func() *regexp.Regexp {
	kinds := append(tokenize.Kinds(), tokenize.KindEntity)
	prefixes := make([]string, len(kinds))
	for i, k := range kinds {
		prefixes[i] = regexp.QuoteMeta(string(k))
	}
	return regexp.MustCompile(`(?:` + strings.Join(prefixes, "|") + `)_\d+`)
}()

// Converter replaces tokens with user-facing names from one session registry.
type Converter struct {
	registry *tokenize.Registry
}

// New creates a Converter reading from registry.
func New(registry *tokenize.Registry) *Converter {
	return &Converter{registry: registry}
}

// ConvertToUserFriendly coerces v to text and rehydrates every known token in it.
// A nil value becomes "null"; unknown tokens pass through unchanged.
func (c *Converter) ConvertToUserFriendly(v any) string {
	if isNil(v) {
		return "null"
	}
	return c.ConvertResponse(tokenize.Stringify(v))
}

// ConvertResponse rehydrates a model response in a single pass over text.
func (c *Converter) ConvertResponse(text string) string {
	if c == nil || c.registry == nil || text == "" || c.registry.Len() == 0 {
		return text
	}
	matches := tokenPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && isASCIIAlnum(text[start-1]) {
			continue
		}
		entry, ok := c.registry.ReverseLookup(text[start:end])
		if !ok {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(Display(entry))
		last = end
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

func isASCIIAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Display renders the human-readable form of an entry. An entry with no
// recorded attributes renders as its token.
func Display(e tokenize.Entry) string {
	name := e.Attributes.Get(tokenize.FieldName)
	institution := e.Attributes.Get(tokenize.FieldInstitution)
	kind := e.Attributes.Get(tokenize.FieldType)

	var b strings.Builder
	switch e.Kind {
	case tokenize.KindAccount:
		b.WriteString(name)
		if institution != "" {
			appendPart(&b, "at "+institution)
		}
	case tokenize.KindSecurity:
		b.WriteString(name)
		if ticker := e.Attributes.Get(tokenize.FieldTicker); ticker != "" {
			appendPart(&b, "("+ticker+")")
		}
		if kind != "" {
			appendPart(&b, "- "+kind)
		}
	case tokenize.KindLiability:
		b.WriteString(name)
		if kind != "" {
			appendPart(&b, "("+kind+")")
		}
		if institution != "" {
			appendPart(&b, "at "+institution)
		}
	default:
		b.WriteString(name)
	}

	if b.Len() == 0 {
		return e.Token
	}
	return b.String()
}

func appendPart(b *strings.Builder, part string) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(part)
}
