package mentor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Known style attribute keys. Model output may carry any other key as well.
const (
	KeyTone               = "tone"
	KeyCommonPhrases      = "common_phrases"
	KeyEmojiUsage         = "emoji_usage"
	KeyMessageLength      = "message_length"
	KeyGreetingStyle      = "greeting_style"
	KeySignOffStyle       = "sign_off_style"
	KeyPunctuationStyle   = "punctuation_style"
	KeyEncouragementLevel = "encouragement_level"
	KeyTeachingApproach   = "teaching_approach"
	KeyResponsePattern    = "response_pattern"
)

// RequiredKeys lists the attributes every stored profile should carry.
var RequiredKeys = []string{
	KeyTone,
	KeyCommonPhrases,
	KeyEmojiUsage,
	KeyMessageLength,
	KeyGreetingStyle,
	KeySignOffStyle,
	KeyPunctuationStyle,
	KeyEncouragementLevel,
}

// StyleProfile is a mentor's communication fingerprint. Known attributes are
// typed; anything else the model returned is kept in Extra.
type StyleProfile struct {
	Tone               string
	CommonPhrases      []string
	EmojiUsage         string
	MessageLength      string
	GreetingStyle      string
	SignOffStyle       string
	PunctuationStyle   string
	EncouragementLevel string
	TeachingApproach   string
	ResponsePattern    string
	Extra              map[string]any
}

// Style is the stored profile for one mentor.
type Style struct {
	ID              string       `json:"id,omitempty"`
	MentorID        string       `json:"mentorId"`
	Profile         StyleProfile `json:"style"`
	SampleMessages  []string     `json:"sampleMessages"`
	ConfidenceScore float64      `json:"confidenceScore"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// DefaultProfile is the neutral style used for mentors that were never analyzed.
func DefaultProfile() StyleProfile {
	return StyleProfile{
		Tone:               "friendly",
		CommonPhrases:      []string{},
		EmojiUsage:         "rare",
		MessageLength:      "medium",
		GreetingStyle:      "friendly",
		SignOffStyle:       "encouraging",
		PunctuationStyle:   "mixed",
		EncouragementLevel: "medium",
		TeachingApproach:   "step_by_step",
		ResponsePattern:    "structured",
	}
}

// Missing returns the required keys that have no value.
func (p StyleProfile) Missing() []string {
	fields := p.fields()
	var missing []string
	for _, key := range RequiredKeys {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Describe renders the profile as prompt text, known keys first.
func (p StyleProfile) Describe() string {
	fields := p.fields()
	known := map[string]bool{}
	var b strings.Builder
	write := func(key string, val any) {
		label := strings.ReplaceAll(key, "_", " ")
		switch v := val.(type) {
		case []string:
			fmt.Fprintf(&b, "- %s: %s\n", label, strings.Join(v, "; "))
		default:
			fmt.Fprintf(&b, "- %s: %v\n", label, v)
		}
	}
	for _, key := range append(append([]string{}, RequiredKeys...), KeyTeachingApproach, KeyResponsePattern) {
		known[key] = true
		if val, ok := fields[key]; ok {
			write(key, val)
		}
	}

	extraKeys := make([]string, 0, len(p.Extra))
	for key := range p.Extra {
		if !known[key] {
			extraKeys = append(extraKeys, key)
		}
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		write(key, p.Extra[key])
	}
	return strings.TrimRight(b.String(), "\n")
}

func (p StyleProfile) fields() map[string]any {
	out := make(map[string]any, len(p.Extra)+10)
	for k, v := range p.Extra {
		out[k] = v
	}
	put := func(key, val string) {
		if val = strings.TrimSpace(val); val != "" {
			out[key] = val
		}
	}
	put(KeyTone, p.Tone)
	if p.CommonPhrases != nil {
		out[KeyCommonPhrases] = p.CommonPhrases
	}
	put(KeyEmojiUsage, p.EmojiUsage)
	put(KeyMessageLength, p.MessageLength)
	put(KeyGreetingStyle, p.GreetingStyle)
	put(KeySignOffStyle, p.SignOffStyle)
	put(KeyPunctuationStyle, p.PunctuationStyle)
	put(KeyEncouragementLevel, p.EncouragementLevel)
	put(KeyTeachingApproach, p.TeachingApproach)
	put(KeyResponsePattern, p.ResponsePattern)
	return out
}

// MarshalJSON flattens known attributes and Extra into one object.
func (p StyleProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.fields())
}

// UnmarshalJSON accepts any object. Known keys are coerced best-effort: a
// phrase list given as a single string becomes a one-element list, numbers and
// booleans become strings.
func (p *StyleProfile) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("style profile must be a JSON object")
	}

	*p = StyleProfile{}
	p.Tone = takeString(raw, KeyTone)
	p.CommonPhrases = takeList(raw, KeyCommonPhrases)
	p.EmojiUsage = takeString(raw, KeyEmojiUsage)
	p.MessageLength = takeString(raw, KeyMessageLength)
	p.GreetingStyle = takeString(raw, KeyGreetingStyle)
	p.SignOffStyle = takeString(raw, KeySignOffStyle)
	p.PunctuationStyle = takeString(raw, KeyPunctuationStyle)
	p.EncouragementLevel = takeString(raw, KeyEncouragementLevel)
	p.TeachingApproach = takeString(raw, KeyTeachingApproach)
	p.ResponsePattern = takeString(raw, KeyResponsePattern)
	if len(raw) > 0 {
		p.Extra = raw
	}
	return nil
}

func takeString(raw map[string]any, key string) string {
	val, ok := raw[key]
	if !ok {
		return ""
	}
	delete(raw, key)
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func takeList(raw map[string]any, key string) []string {
	val, ok := raw[key]
	if !ok {
		return nil
	}
	delete(raw, key)
	switch v := val.(type) {
	case nil:
		return nil
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
		return []string{}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}
