package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	styleheuristics "github.com/xandylearning/mentor-ai/backend/internal/analysis/style"
	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	"github.com/xandylearning/mentor-ai/backend/internal/model/mentor"
	"github.com/xandylearning/mentor-ai/backend/internal/service/ai"
	"github.com/xandylearning/mentor-ai/backend/internal/service/style"
)

// AnalyzeMentorStyle asks the model for a style profile of the samples and
// stores it. Output that is not a JSON object fails the call and nothing is
// saved. Known attributes the model left out are filled from local
// heuristics, which lowers the recorded confidence.
func (s *Service) AnalyzeMentorStyle(ctx context.Context, mentorID string, samples []string) (mentor.Style, error) {
	mentorID = strings.TrimSpace(mentorID)
	if mentorID == "" {
		return mentor.Style{}, apperr.Required("mentor_id")
	}
	cleaned := make([]string, 0, len(samples))
	for _, sample := range samples {
		if sample = strings.TrimSpace(sample); sample != "" {
			cleaned = append(cleaned, sample)
		}
	}
	if len(cleaned) == 0 {
		return mentor.Style{}, apperr.Required("samples")
	}

	log := s.log.With(zap.String("mentor_id", mentorID), zap.Int("samples", len(cleaned)))

	raw, err := s.gen.Generate(ctx, ai.Request{
		Mode:  ai.ModeStyle,
		Input: strings.Join(cleaned, "\n"),
	})
	if err != nil {
		log.Error("style analysis failed", zap.Error(err))
		return mentor.Style{}, err
	}

	profile, err := style.ParseProfile(raw)
	if err != nil {
		log.Error("style analysis returned unusable output", zap.Error(err))
		return mentor.Style{}, apperr.Generation(string(ai.ModeStyle), err)
	}

	profile, filled := styleheuristics.Fill(profile, cleaned)
	confidence := ConfidenceComplete
	if len(filled) > 0 {
		confidence = ConfidenceFilled
		log.Info("filled style attributes from heuristics", zap.Strings("keys", filled))
	}

	saved, err := s.store.SaveMentorStyle(ctx, mentorID, profile, cleaned, confidence)
	if err != nil {
		return mentor.Style{}, err
	}
	s.styles.Store(ctx, saved)

	log.Info("mentor style saved", zap.Float64("confidence", confidence))
	return saved, nil
}

// AnalyzePreset analyzes the sample messages of a built-in preset.
func (s *Service) AnalyzePreset(ctx context.Context, mentorID, presetKey string) (mentor.Style, error) {
	preset, err := findPreset(presetKey)
	if err != nil {
		return mentor.Style{}, err
	}
	return s.AnalyzeMentorStyle(ctx, mentorID, preset.Samples)
}

// GetMentorStyle returns the stored style, or NotFoundError when the mentor
// was never analyzed.
func (s *Service) GetMentorStyle(ctx context.Context, mentorID string) (mentor.Style, error) {
	stored, found, err := s.store.GetMentorStyle(ctx, mentorID)
	if err != nil {
		return mentor.Style{}, err
	}
	if !found {
		return mentor.Style{}, apperr.NotFound("mentor style", mentorID)
	}
	return stored, nil
}

func findPreset(key string) (mentor.Preset, error) {
	if strings.TrimSpace(key) == "" {
		key = mentor.DefaultPresetKey
	}
	preset, ok := mentor.FindPreset(key)
	if !ok {
		return mentor.Preset{}, apperr.Invalid("preset", "unknown preset "+key)
	}
	return preset, nil
}
