package fieldmap

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Normalizer maps spreadsheet headers to canonical field names and cleans cell values
type Normalizer struct {
	synonyms  map[string]string // compact header -> canonical field
	locations []string
}

// Mapping one accepted header spelling
type Mapping struct {
	Synonym string `json:"synonym"`
	Field   string `json:"field"`
}

// NewNormalizer builds a normalizer recognizing the given stocking locations
func NewNormalizer(locations []string) *Normalizer {
	if len(locations) == 0 {
		locations = DefaultLocations
	}
	n := &Normalizer{
		synonyms:  make(map[string]string),
		locations: make([]string, 0, len(locations)),
	}
	for field, names := range canonicalSynonyms {
		n.synonyms[Compact(field)] = field
		for _, name := range names {
			n.synonyms[name] = field
		}
	}
	for _, loc := range locations {
		loc = Slug(loc)
		if loc == "" {
			continue
		}
		n.locations = append(n.locations, loc)
		field := LocationField(loc)
		n.synonyms[Compact(field)] = field
		for _, form := range locationSynonymForms {
			n.synonyms[fmt.Sprintf(form, Compact(loc))] = field
		}
	}
	return n
}

// Locations configured stocking locations
func (n *Normalizer) Locations() []string {
	return append([]string(nil), n.locations...)
}

// NormalizeHeader maps one header to its canonical field, falling back to a slug
func (n *Normalizer) NormalizeHeader(header string) string {
	header = strings.TrimPrefix(header, "\ufeff")
	if field, ok := n.synonyms[Compact(header)]; ok {
		return field
	}
	return Slug(header)
}

// MapHeaders maps a header row; blank headers become column_<n>
func (n *Normalizer) MapHeaders(headers []string) []string {
	fields := make([]string, len(headers))
	for i, h := range headers {
		field := n.NormalizeHeader(h)
		if field == "" {
			field = fmt.Sprintf("column_%d", i+1)
		}
		fields[i] = field
	}
	return fields
}

// NormalizeRow builds a canonical field map from a header row and one row of cells.
// Missing cells become empty strings; the first non-empty value wins when headers collide.
func (n *Normalizer) NormalizeRow(headers, cells []string) map[string]string {
	fields := n.MapHeaders(headers)
	out := make(map[string]string, len(fields))
	for i, field := range fields {
		value := ""
		if i < len(cells) {
			value = CleanValue(cells[i])
		}
		if existing, ok := out[field]; ok && existing != "" {
			continue
		}
		out[field] = value
	}
	return out
}

// NormalizeFields re-normalizes an already keyed field map. Applying it twice is a no-op.
func (n *Normalizer) NormalizeFields(in map[string]string) map[string]string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(in))
	for _, k := range keys {
		field := n.NormalizeHeader(k)
		if field == "" {
			continue
		}
		value := CleanValue(in[k])
		if existing, ok := out[field]; ok && existing != "" {
			continue
		}
		out[field] = value
	}
	return out
}

// Synonyms the full header table, sorted by field then synonym
func (n *Normalizer) Synonyms() []Mapping {
	list := make([]Mapping, 0, len(n.synonyms))
	for synonym, field := range n.synonyms {
		list = append(list, Mapping{Synonym: synonym, Field: field})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Field == list[j].Field {
			return list[i].Synonym < list[j].Synonym
		}
		return list[i].Field < list[j].Field
	})
	return list
}

// CleanValue trims a cell and removes spreadsheet formula wrapping
func CleanValue(v string) string {
	v = strings.ReplaceAll(v, "\u00a0", " ")
	return StripFormula(v)
}

// StripFormula removes a leading "=" and the quotes it wraps, e.g. ="10406" -> 10406.
// Repeats until nothing changes.
func StripFormula(v string) string {
	for {
		next := stripFormulaOnce(v)
		if next == v {
			return next
		}
		v = next
	}
}

func stripFormulaOnce(v string) string {
	t := strings.TrimSpace(v)
	if !strings.HasPrefix(t, "=") {
		return t
	}
	t = strings.TrimSpace(t[1:])
	if len(t) >= 2 && strings.HasPrefix(t, `"`) && strings.HasSuffix(t, `"`) {
		t = strings.ReplaceAll(t[1:len(t)-1], `""`, `"`)
	}
	return strings.TrimSpace(t)
}

// HasFormula reports whether a value still carries formula wrapping
func HasFormula(v string) bool {
	return StripFormula(v) != strings.TrimSpace(v)
}

// Compact lowercases and keeps only letters and digits: "Part #" -> "part"
func Compact(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Slug lowercases and joins alphanumeric runs with "_": "Bin Location #2" -> "bin_location_2"
func Slug(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
