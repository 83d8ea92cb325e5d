package prompts

const claritySpec = `Respond with a JSON object matching this exact structure:

{
  "nonsensical_words": ["<word1>", "<word2>"]
}

Field constraints:
- nonsensical_words: Each flagged word exactly as it appears in the
  transcript. Use an empty array when nothing qualifies.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Only include words that are clearly errors or nonsensical, not just
  uncommon terminology`

const contentSpec = `Respond with a JSON object matching this exact structure:

{
  "scores": [
    {"criterion_id": "<exact id>", "score": 4, "feedback": "<feedback>"}
  ],
  "overall_feedback": "<feedback>"
}

Field constraints:
- scores: One entry per criterion, in the order the criteria are listed.
- criterion_id: The exact ID string given for the criterion.
- score: A number from 0 to the criterion's max score.
- feedback: 2-3 sentences explaining the score.
- overall_feedback: 3-4 sentences on the presentation as a whole.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Use the exact criterion IDs provided; do not invent or renumber them
- Never exceed a criterion's max score`

var specs = map[Stage]string{
	StageClarity: claritySpec,
	StageContent: contentSpec,
}

// Spec returns the fixed response contract for a stage. Specs cannot be
// overridden because the grading code parses against them.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
