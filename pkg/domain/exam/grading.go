package exam

import "strings"

// Score grades the submitted answers against the exam's questions and
// returns a percentage. Answers for unknown questions are ignored; a
// question with no answer counts as wrong.
func Score(questions []Question, answers map[string]string) float64 {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for _, q := range questions {
		given, ok := answers[q.ID]
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(q.CorrectAnswer)) {
			correct++
		}
	}
	return float64(correct) / float64(len(questions)) * 100
}

// Grade maps a percentage score to the letter grade used on transcripts.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// UniformAnswers reports whether every submitted answer is identical. A
// multi-question submission where all values match is the cheapest
// plagiarism signal there is and is rejected before grading.
func UniformAnswers(answers map[string]string) bool {
	if len(answers) < 2 {
		return false
	}
	var first string
	seen := false
	for _, v := range answers {
		normalized := strings.ToLower(strings.TrimSpace(v))
		if !seen {
			first = normalized
			seen = true
			continue
		}
		if normalized != first {
			return false
		}
	}
	return true
}

// ForceFail overwrites a submission's result with the failing grade. It is
// applied exactly once, when the submission arrives after the exam closed.
func (s *Submission) ForceFail() {
	s.Score = 0
	s.Grade = "F"
	s.Late = true
}
