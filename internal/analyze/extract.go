package analyze

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	fenceMarker = regexp.MustCompile("(?i)```(?:json)?")

	errNoJSON = errors.New("no valid JSON structure found in response")
)

// locateJSON strips code fences and returns the text between the first '{'
// and the last '}'.
func locateJSON(text string) (string, error) {
	cleaned := strings.TrimSpace(fenceMarker.ReplaceAllString(text, ""))
	if cleaned == "" {
		return "", Tag(CodeNoJSONFound, errEmptyReply)
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return "", Tag(CodeNoJSONFound, errNoJSON)
	}
	return cleaned[start : end+1], nil
}

// decodeJSON decodes the candidate into a generic tree
func decodeJSON(candidate string) (map[string]any, error) {
	var tree map[string]any
	if err := json.Unmarshal([]byte(candidate), &tree); err != nil {
		return nil, Tag(CodeParseError, fmt.Errorf("JSON parse failed: %w", err))
	}
	return tree, nil
}

// extract pulls the JSON object out of a model reply
func extract(text string) (map[string]any, error) {
	candidate, err := locateJSON(text)
	if err != nil {
		return nil, err
	}
	return decodeJSON(candidate)
}
