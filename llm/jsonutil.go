package llm

import (
	"regexp"
	"strings"
)

var (
	fencedObjectRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	bareObjectRe   = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	fencedArrayRe  = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\[.*\\])\\s*```")
	bareArrayRe    = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls a JSON object out of model output. Objects wrapped in
// markdown code fences are unwrapped; line comments and trailing commas,
// which models emit despite instructions, are stripped.
func ExtractJSON(content string) string {
	if m := fencedObjectRe.FindStringSubmatch(content); len(m) > 1 {
		return repairJSON(m[1])
	}
	if m := bareObjectRe.FindString(content); m != "" {
		return repairJSON(m)
	}
	return ""
}

// ExtractJSONArray is ExtractJSON for top-level arrays.
func ExtractJSONArray(content string) string {
	if m := fencedArrayRe.FindStringSubmatch(content); len(m) > 1 {
		return repairJSON(m[1])
	}
	if m := bareArrayRe.FindString(content); m != "" {
		return repairJSON(m)
	}
	return ""
}

// repairJSON fixes the two almost-JSON artifacts models produce: // line
// comments outside string values, and trailing commas before } or ].
func repairJSON(raw string) string {
	if strings.Contains(raw, "//") {
		lines := strings.Split(raw, "\n")
		for i, line := range lines {
			lines[i] = dropLineComment(line)
		}
		raw = strings.Join(lines, "\n")
	}
	return trailingComma.ReplaceAllString(raw, "$1")
}

// dropLineComment cuts a // comment off a line unless the slashes sit
// inside a string value. A URL like "http://x" must survive intact.
func dropLineComment(line string) string {
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if inString {
				i++ // skip the escaped character
			}
		case '"':
			inString = !inString
		case '/':
			if !inString && i+1 < len(line) && line[i+1] == '/' {
				return strings.TrimRight(line[:i], " \t")
			}
		}
	}
	return line
}
