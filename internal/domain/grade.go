package domain

// GradeSheet scores an attempt's answers against the quiz answer key.
// Every question counts toward MaxScore; a question counts toward Score only
// when an answer exists and its chosen index equals the correct index, so an
// out-of-range chosen index is simply never correct.
func GradeSheet(keys []AnswerKey, chosen map[string]int) Grade {
	grade := Grade{MaxScore: len(keys)}
	for _, key := range keys {
		if idx, ok := chosen[key.QuestionID]; ok && idx == key.CorrectIndex {
			grade.Score++
		}
	}
	return grade
}
