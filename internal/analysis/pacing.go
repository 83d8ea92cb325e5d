// Package analysis implements the delivery and content analyses that make up
// a presentation grade: pacing from word timing, clarity from filler and
// nonsensical words, and rubric-based content scoring.
package analysis

import (
	"math"

	"github.com/JaimeStill/cadence/internal/transcripts"
)

const (
	minPacingWords = 10
	windowSeconds  = 60.0
	pauseGap       = 1.0
)

// Segment is one window of the pacing timeline.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	WPM   int     `json:"wpm"`
}

// Pacing holds speaking-rate statistics and the derived 0-100 score.
type Pacing struct {
	WPMAvg           float64   `json:"wpm_avg"`
	WPMVariance      float64   `json:"wpm_variance"`
	PauseCount       int       `json:"pause_count"`
	PauseAvgDuration float64   `json:"pause_avg_duration"`
	Score            float64   `json:"pacing_score"`
	Timeline         []Segment `json:"pacing_timeline"`
}

// AnalyzePacing computes pacing metrics for an ordered word sequence.
// Fewer than ten words, or a zero-length span, yields a zeroed result.
func AnalyzePacing(words []transcripts.Word) Pacing {
	zero := Pacing{Timeline: []Segment{}}
	if len(words) < minPacingWords {
		return zero
	}

	first := words[0].Start
	last := words[len(words)-1].End
	minutes := (last - first) / 60
	if minutes <= 0 {
		return zero
	}

	timeline := segment(words, first, last)
	wpmAvg := float64(len(words)) / minutes
	variance := sampleVariance(timeline)
	pauses := detectPauses(words)

	return Pacing{
		WPMAvg:           round(wpmAvg, 1),
		WPMVariance:      round(variance, 1),
		PauseCount:       len(pauses),
		PauseAvgDuration: round(mean(pauses), 2),
		Score:            round(scorePacing(wpmAvg, variance, len(pauses), minutes), 1),
		Timeline:         timeline,
	}
}

// segment partitions words into 60 second windows anchored at the first
// word. Closed windows record their raw count; the final window is scaled
// to its actual duration.
func segment(words []transcripts.Word, first, last float64) []Segment {
	timeline := []Segment{}
	start := first
	count := 0

	for _, w := range words {
		if w.Start >= start+windowSeconds {
			if count > 0 {
				timeline = append(timeline, Segment{
					Start: start,
					End:   start + windowSeconds,
					WPM:   count,
				})
			}
			start += windowSeconds
			count = 0
		}
		count++
	}

	if count > 0 {
		wpm := count
		if last > start {
			wpm = int(float64(count) / ((last - start) / 60))
		}
		timeline = append(timeline, Segment{Start: start, End: last, WPM: wpm})
	}

	return timeline
}

func sampleVariance(timeline []Segment) float64 {
	n := len(timeline)
	if n < 2 {
		return 0
	}

	var sum float64
	for _, s := range timeline {
		sum += float64(s.WPM)
	}
	avg := sum / float64(n)

	var sq float64
	for _, s := range timeline {
		d := float64(s.WPM) - avg
		sq += d * d
	}
	return sq / float64(n-1)
}

func detectPauses(words []transcripts.Word) []float64 {
	var pauses []float64
	for i := 1; i < len(words); i++ {
		if gap := words[i].Start - words[i-1].End; gap > pauseGap {
			pauses = append(pauses, gap)
		}
	}
	return pauses
}

// scorePacing starts at 100 and subtracts speed, variance, and pause
// penalties. Speed bands are checked in the order <100, >200, <130, >170.
func scorePacing(wpm, variance float64, pauses int, minutes float64) float64 {
	score := 100.0

	switch {
	case wpm < 100:
		score -= (100 - wpm) * 0.5
	case wpm > 200:
		score -= (wpm - 200) * 0.3
	case wpm < 130:
		score -= (130 - wpm) * 0.2
	case wpm > 170:
		score -= (wpm - 170) * 0.2
	}

	if variance > 400 {
		score -= math.Min(20, (variance-400)/50)
	}

	expected := minutes * 0.5
	if diff := math.Abs(float64(pauses) - expected); diff > 5 {
		score -= math.Min(10, diff)
	}

	return clamp(score, 0, 100)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
