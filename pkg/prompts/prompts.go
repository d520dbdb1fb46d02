// Package prompts provides {placeholder} template substitution for prompt
// text.
package prompts

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// Fill replaces every {name} placeholder in template with the rendered value
// from vars. Repeated placeholders are all replaced. Placeholders with no
// matching entry in vars are left verbatim. There is no escaping syntax; a
// brace pair around a word is always a substitution site.
func Fill(template string, vars map[string]any) string {
	if len(vars) == 0 {
		return template
	}

	out := template
	for name, v := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", fmt.Sprint(v))
	}
	return out
}

// Placeholders returns the distinct placeholder names in template, in order
// of first appearance.
func Placeholders(template string) []string {
	seen := make(map[string]bool)
	var names []string

	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Missing returns the placeholder names in template that have no entry in
// vars, in order of first appearance.
func Missing(template string, vars map[string]any) []string {
	var missing []string
	for _, name := range Placeholders(template) {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
