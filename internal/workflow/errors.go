// Package workflow implements the grading state graph. A run loads the
// transcript and rubric, then executes pacing, clarity, and content analysis
// in sequence and aggregates them into a weighted score
// (load → pacing → clarity → content → score).
package workflow

import "errors"

// Sentinel errors for workflow operations.
var (
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrRubricNotFound     = errors.New("rubric not found")
	ErrLoadFailed         = errors.New("failed to load grading inputs")
	ErrScoreFailed        = errors.New("failed to compute score")
)
