package ai

import (
	"fmt"
	"strings"
)

func buildGradingPrompt(req GradeRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an experienced teacher grading a student's answer.\n")
	sb.WriteString("Compare the student answer with the model answer and judge how well it covers the same ideas.\n\n")

	fmt.Fprintf(&sb, "Question: %s\n", req.Question)
	fmt.Fprintf(&sb, "Model Answer: %s\n", req.Reference)
	if len(req.KeyPoints) > 0 {
		fmt.Fprintf(&sb, "Key Points: %s\n", strings.Join(req.KeyPoints, "; "))
	}
	if len(req.CommonMistakes) > 0 {
		fmt.Fprintf(&sb, "Common Mistakes: %s\n", strings.Join(req.CommonMistakes, "; "))
	}
	fmt.Fprintf(&sb, "Student Answer: %s\n\n", req.StudentAnswer)

	sb.WriteString("Evaluate the answer and provide:\n")
	sb.WriteString("1. score: a number from 0 to 100\n")
	sb.WriteString("2. feedback: one or two sentences of constructive feedback\n")
	sb.WriteString("3. is_correct: true if the answer is substantially correct, otherwise false\n\n")
	sb.WriteString(`Respond with a single JSON object and nothing else, for example: {"score": 85, "feedback": "Good answer", "is_correct": true}`)
	return sb.String()
}

func buildGenerationPrompt(sourceText, difficulty string, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d multiple choice questions from the following content.\n", count)
	fmt.Fprintf(&sb, "Difficulty: %s\n\n", difficulty)
	fmt.Fprintf(&sb, "Content:\n%s\n\n", sourceText)
	fmt.Fprintf(&sb, "Each question must have exactly %d options and exactly one correct option.\n", DraftOptionCount)
	sb.WriteString("Respond with a JSON array and nothing else, in this format:\n")
	sb.WriteString(`[{"question": "...", "options": ["A", "B", "C", "D"], "correct_answer": "the correct option text", "explanation": "..."}]`)
	return sb.String()
}
