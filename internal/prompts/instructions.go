package prompts

const clarityInstructions = `You identify words that don't make sense in context or appear to be transcription errors.

Read the transcript of a spoken presentation. Flag only words that are clearly wrong for their context: misheard words, garbled tokens, or words that break the meaning of the sentence. Do not flag proper nouns, domain terminology, acronyms, or uncommon but valid words.`

const contentInstructions = `You are an expert presentation evaluator. Provide fair, constructive feedback based on the rubric criteria.

Score each criterion on its own merits using only the transcript. Feedback for a criterion should be 2-3 sentences explaining the score. Overall feedback should be 3-4 sentences covering the strongest aspects of the presentation and the most valuable improvements.`

var instructions = map[Stage]string{
	StageClarity: clarityInstructions,
	StageContent: contentInstructions,
}

// DefaultInstructions returns the built-in instructions for a stage.
func DefaultInstructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
