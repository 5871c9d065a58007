package dataset

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseTags decodes a serialized tag list such as "['Kondisi', 'Harga']".
// The form is a YAML flow sequence, so single and double quotes both work.
// Values that are not bracketed lists, and "[]", yield no tags.
func ParseTags(s string) []string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil
	}

	var items []any
	if err := yaml.Unmarshal([]byte(s), &items); err != nil {
		return splitTags(s)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if tag := strings.TrimSpace(fmt.Sprint(item)); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// splitTags handles lists YAML rejects, e.g. an unbalanced quote inside a
// tag name.
func splitTags(s string) []string {
	inner := strings.Trim(s, "[]'\" ")
	if inner == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(inner, ",") {
		part = strings.Trim(strings.TrimSpace(part), "'\"")
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
