package style

import (
	"testing"

	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
)

func TestInferEncouragingPreset(t *testing.T) {
	preset, _ := mentor.FindPreset("encouraging")
	p := Infer(preset.Samples)

	if p.Tone != ToneEncouraging {
		t.Fatalf("expected encouraging tone, got %s", p.Tone)
	}
	if p.EmojiUsage != "frequent" {
		t.Fatalf("expected frequent emoji usage, got %s", p.EmojiUsage)
	}
	if len(p.Missing()) != 0 {
		t.Fatalf("inferred profile should be complete, missing %v", p.Missing())
	}
}

func TestInferAcademicPreset(t *testing.T) {
	preset, _ := mentor.FindPreset("academic")
	p := Infer(preset.Samples)

	if p.Tone != ToneFormal {
		t.Fatalf("expected formal tone, got %s", p.Tone)
	}
	if p.EmojiUsage != "none" {
		t.Fatalf("expected no emoji, got %s", p.EmojiUsage)
	}
	if p.GreetingStyle != `opens with "Let us"` {
		t.Fatalf("unexpected greeting style %q", p.GreetingStyle)
	}
	found := false
	for _, phrase := range p.CommonPhrases {
		if phrase == "let us" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'let us' among common phrases, got %v", p.CommonPhrases)
	}
}

func TestInferEmptySamples(t *testing.T) {
	p := Infer(nil)
	if len(p.Missing()) != 0 {
		t.Fatalf("profile from no samples should still be complete, missing %v", p.Missing())
	}
}

func TestFillOnlyTouchesMissingKeys(t *testing.T) {
	preset, _ := mentor.FindPreset("direct")
	partial := mentor.StyleProfile{Tone: "stern", EmojiUsage: "never"}

	filled, keys := Fill(partial, preset.Samples)

	if filled.Tone != "stern" || filled.EmojiUsage != "never" {
		t.Fatalf("existing values were overwritten: %+v", filled)
	}
	if len(keys) != len(mentor.RequiredKeys)-2 {
		t.Fatalf("expected %d filled keys, got %v", len(mentor.RequiredKeys)-2, keys)
	}
	if len(filled.Missing()) != 0 {
		t.Fatalf("filled profile still missing %v", filled.Missing())
	}

	again, keys := Fill(filled, preset.Samples)
	if keys != nil {
		t.Fatalf("complete profile should not be filled, got %v", keys)
	}
	if again.Tone != "stern" {
		t.Fatalf("unexpected tone %s", again.Tone)
	}
}
