package style

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
)

// ErrNoProfile means the model output held no JSON object.
var ErrNoProfile = errors.New("style analysis returned no JSON object")

// ParseProfile extracts a style profile from raw model output. Markdown code
// fences and any prose around the outermost object are ignored.
func ParseProfile(raw string) (mentor.StyleProfile, error) {
	trimmed := stripFences(strings.TrimSpace(raw))
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return mentor.StyleProfile{}, ErrNoProfile
	}

	var profile mentor.StyleProfile
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &profile); err != nil {
		return mentor.StyleProfile{}, fmt.Errorf("decode style analysis: %w", err)
	}
	return profile, nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag, e.g. ```json
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
