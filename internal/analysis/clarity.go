package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/cadence/internal/evaluator"
	"github.com/JaimeStill/cadence/internal/prompts"
	"github.com/JaimeStill/cadence/internal/transcripts"
	"github.com/JaimeStill/cadence/pkg/formatting"
)

// Clarity holds filler and nonsensical word metrics and the derived 0-100 score.
type Clarity struct {
	FillerCount           int           `json:"filler_word_count"`
	FillerPercentage      float64       `json:"filler_word_percentage"`
	NonsensicalCount      int           `json:"nonsensical_word_count"`
	NonsensicalPercentage float64       `json:"nonsensical_word_percentage"`
	Score                 float64       `json:"clarity_score"`
	Fillers               []FillerCount `json:"filler_words"`
	NonsensicalWords      []string      `json:"nonsensical_words"`
}

type nonsenseResponse struct {
	NonsensicalWords []string `json:"nonsensical_words"`
}

// ClarityAnalyzer scores verbal clarity. Nonsensical word detection is
// delegated to the completion service; any failure there is logged and
// treated as no flagged words.
type ClarityAnalyzer struct {
	client      evaluator.Client
	prompts     prompts.Source
	temperature float64
	logger      *slog.Logger
}

// NewClarityAnalyzer creates a ClarityAnalyzer.
func NewClarityAnalyzer(
	client evaluator.Client,
	src prompts.Source,
	temperature float64,
	logger *slog.Logger,
) *ClarityAnalyzer {
	return &ClarityAnalyzer{
		client:      client,
		prompts:     src,
		temperature: temperature,
		logger:      logger.With("analyzer", "clarity"),
	}
}

// Analyze computes clarity metrics for words and their full transcript text.
// An empty word sequence returns zeroed metrics without calling the service.
func (a *ClarityAnalyzer) Analyze(ctx context.Context, words []transcripts.Word, text string) Clarity {
	if len(words) == 0 {
		return Clarity{
			Fillers:          []FillerCount{},
			NonsensicalWords: []string{},
		}
	}

	total := float64(len(words))
	fillers, fillerCount := CountFillers(words, text)
	flagged := a.detectNonsense(ctx, text)

	fillerPct := float64(fillerCount) / total * 100
	nonsensePct := float64(len(flagged)) / total * 100

	return Clarity{
		FillerCount:           fillerCount,
		FillerPercentage:      round(fillerPct, 2),
		NonsensicalCount:      len(flagged),
		NonsensicalPercentage: round(nonsensePct, 2),
		Score:                 round(ScoreClarity(fillerPct, nonsensePct), 1),
		Fillers:               fillers,
		NonsensicalWords:      flagged,
	}
}

func (a *ClarityAnalyzer) detectNonsense(ctx context.Context, text string) []string {
	words, err := a.requestNonsense(ctx, text)
	if err != nil {
		a.logger.WarnContext(ctx, "nonsensical word detection failed", "error", err)
		return []string{}
	}
	return words
}

func (a *ClarityAnalyzer) requestNonsense(ctx context.Context, text string) ([]string, error) {
	system, err := prompts.Compose(ctx, a.prompts, prompts.StageClarity)
	if err != nil {
		return nil, fmt.Errorf("compose prompt: %w", err)
	}

	prompt := system + "\n\n" +
		"Identify words that don't make sense in context or appear to be transcription errors in this transcript.\n\n" +
		"Transcript:\n" + text

	raw, err := a.client.Complete(ctx, evaluator.Request{
		Stage:       string(prompts.StageClarity),
		Prompt:      prompt,
		Temperature: a.temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := formatting.Parse[nonsenseResponse](raw)
	if err != nil {
		return nil, err
	}

	if parsed.NonsensicalWords == nil {
		return []string{}, nil
	}
	return parsed.NonsensicalWords, nil
}

// ScoreClarity starts at 100 and subtracts tiered penalties for filler and
// nonsensical word percentages, clamping the result to [0, 100].
func ScoreClarity(fillerPct, nonsensePct float64) float64 {
	score := 100.0

	switch {
	case fillerPct < 2:
	case fillerPct < 5:
		score -= (fillerPct - 2) * 5
	default:
		score -= 15 + (fillerPct-5)*3
	}

	switch {
	case nonsensePct < 1:
	case nonsensePct < 3:
		score -= (nonsensePct - 1) * 10
	default:
		score -= 20 + (nonsensePct-3)*5
	}

	return clamp(score, 0, 100)
}
