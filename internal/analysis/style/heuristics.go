// Package style derives communication attributes from sample messages with
// local heuristics. It fills gaps in model-produced style profiles.
package style

import (
	"sort"
	"strings"
	"unicode"

	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
)

// Tone labels produced by Infer.
const (
	ToneEncouraging = "encouraging"
	ToneFormal      = "formal"
	ToneDirect      = "direct"
	ToneCasual      = "casual"
)

var toneKeywords = map[string][]string{
	ToneEncouraging: {
		"great", "awesome", "perfect", "you got this", "you've got", "excellent progress", "well done",
		"don't worry", "no worries", "proud", "amazing", "nice work", "keep going", "you're a natural",
	},
	ToneFormal: {
		"let us", "we shall", "i shall", "precisely", "pedagogical", "theoretical", "paradigm",
		"furthermore", "consider", "perspective", "principles",
	},
	ToneDirect: {
		"correct.", "incorrect", "focus", "must", "we will", "we won't", "show me", "try again",
		"the key is", "here's the core",
	},
	ToneCasual: {
		"alright", "cool", "yeah", "basically", "makes sense", "trust me", "gonna", "stuff", "hey",
	},
}

var encouragementWords = []string{
	"great", "awesome", "perfect", "excellent", "good", "nice", "well done", "you got", "proud",
	"progress", "natural", "keep", "!",
}

// Infer builds a profile from samples. Every required key is set.
func Infer(samples []string) mentor.StyleProfile {
	cleaned := make([]string, 0, len(samples))
	for _, s := range samples {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}

	p := mentor.StyleProfile{
		Tone:               inferTone(cleaned),
		CommonPhrases:      commonPhrases(cleaned, 3),
		EmojiUsage:         emojiUsage(cleaned),
		MessageLength:      messageLength(cleaned),
		GreetingStyle:      greetingStyle(cleaned),
		SignOffStyle:       signOffStyle(cleaned),
		PunctuationStyle:   punctuationStyle(cleaned),
		EncouragementLevel: encouragementLevel(cleaned),
	}
	return p
}

// Fill sets every missing required key of p from heuristics over samples and
// reports which keys were filled.
func Fill(p mentor.StyleProfile, samples []string) (mentor.StyleProfile, []string) {
	missing := p.Missing()
	if len(missing) == 0 {
		return p, nil
	}

	inferred := Infer(samples)
	for _, key := range missing {
		switch key {
		case mentor.KeyTone:
			p.Tone = inferred.Tone
		case mentor.KeyCommonPhrases:
			p.CommonPhrases = inferred.CommonPhrases
		case mentor.KeyEmojiUsage:
			p.EmojiUsage = inferred.EmojiUsage
		case mentor.KeyMessageLength:
			p.MessageLength = inferred.MessageLength
		case mentor.KeyGreetingStyle:
			p.GreetingStyle = inferred.GreetingStyle
		case mentor.KeySignOffStyle:
			p.SignOffStyle = inferred.SignOffStyle
		case mentor.KeyPunctuationStyle:
			p.PunctuationStyle = inferred.PunctuationStyle
		case mentor.KeyEncouragementLevel:
			p.EncouragementLevel = inferred.EncouragementLevel
		}
	}
	return p, missing
}

func inferTone(samples []string) string {
	if len(samples) == 0 {
		return ToneEncouraging
	}
	scores := make(map[string]int)
	for _, s := range samples {
		lower := strings.ToLower(s)
		for tone, words := range toneKeywords {
			for _, w := range words {
				if strings.Contains(lower, w) {
					scores[tone] += 3
				}
			}
		}
		scores[ToneEncouraging] += strings.Count(s, "!")
	}

	best, bestScore := ToneCasual, 0
	for _, tone := range []string{ToneEncouraging, ToneFormal, ToneDirect, ToneCasual} {
		if scores[tone] > bestScore {
			best, bestScore = tone, scores[tone]
		}
	}
	return best
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	}
	return false
}

func emojiUsage(samples []string) string {
	if len(samples) == 0 {
		return "none"
	}
	withEmoji := 0
	for _, s := range samples {
		for _, r := range s {
			if isEmoji(r) {
				withEmoji++
				break
			}
		}
	}
	ratio := float64(withEmoji) / float64(len(samples))
	switch {
	case ratio >= 0.6:
		return "frequent"
	case ratio >= 0.3:
		return "occasional"
	case ratio > 0:
		return "rare"
	default:
		return "none"
	}
}

func messageLength(samples []string) string {
	if len(samples) == 0 {
		return "medium"
	}
	words := 0
	for _, s := range samples {
		words += len(strings.Fields(s))
	}
	avg := words / len(samples)
	switch {
	case avg < 12:
		return "short"
	case avg < 30:
		return "medium"
	default:
		return "long"
	}
}

func punctuationStyle(samples []string) string {
	var excl, quest, period int
	for _, s := range samples {
		excl += strings.Count(s, "!")
		quest += strings.Count(s, "?")
		period += strings.Count(s, ".")
	}
	total := excl + quest + period
	if total == 0 {
		return "mixed"
	}
	switch {
	case excl*2 > total:
		return "exclamation_heavy"
	case quest*2 > total:
		return "question_heavy"
	case period*2 > total:
		return "period_heavy"
	default:
		return "mixed"
	}
}

func encouragementLevel(samples []string) string {
	if len(samples) == 0 {
		return "medium"
	}
	hits := 0
	for _, s := range samples {
		lower := strings.ToLower(s)
		for _, w := range encouragementWords {
			if strings.Contains(lower, w) {
				hits++
			}
		}
	}
	perMessage := float64(hits) / float64(len(samples))
	switch {
	case perMessage >= 2:
		return "high"
	case perMessage >= 0.75:
		return "medium"
	default:
		return "low"
	}
}

func greetingStyle(samples []string) string {
	openers := make(map[string]int)
	for _, s := range samples {
		first := firstWords(s, 2)
		if first != "" {
			openers[first]++
		}
	}
	best, count := "", 0
	for opener, n := range openers {
		if n > count || (n == count && opener < best) {
			best, count = opener, n
		}
	}
	if count < 2 {
		return "straight to the point"
	}
	return "opens with \"" + best + "\""
}

func signOffStyle(samples []string) string {
	questions, cheers := 0, 0
	for _, s := range samples {
		trimmed := strings.TrimRightFunc(s, func(r rune) bool { return unicode.IsSpace(r) || isEmoji(r) })
		switch {
		case strings.HasSuffix(trimmed, "?"):
			questions++
		case strings.HasSuffix(trimmed, "!"):
			cheers++
		}
	}
	switch {
	case questions == 0 && cheers == 0:
		return "plain statement"
	case questions >= cheers:
		return "ends with a question"
	default:
		return "encouraging"
	}
}

// commonPhrases returns up to limit word pairs that appear in at least two
// different samples, most frequent first.
func commonPhrases(samples []string, limit int) []string {
	seenIn := make(map[string]int)
	for _, s := range samples {
		words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
			return !unicode.IsLetter(r) && r != '\''
		})
		local := make(map[string]bool)
		for i := 0; i+1 < len(words); i++ {
			local[words[i]+" "+words[i+1]] = true
		}
		for phrase := range local {
			seenIn[phrase]++
		}
	}

	phrases := make([]string, 0)
	for phrase, n := range seenIn {
		if n >= 2 {
			phrases = append(phrases, phrase)
		}
	}
	sort.Slice(phrases, func(i, j int) bool {
		if seenIn[phrases[i]] != seenIn[phrases[j]] {
			return seenIn[phrases[i]] > seenIn[phrases[j]]
		}
		return phrases[i] < phrases[j]
	})
	if len(phrases) > limit {
		phrases = phrases[:limit]
	}
	return phrases
}

func firstWords(s string, n int) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '!' || r == '.' || r == '?'
	})
	if len(words) == 0 {
		return ""
	}
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
