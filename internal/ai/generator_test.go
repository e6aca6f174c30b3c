package ai

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoDrafts = `[
  {"question": "What gas do plants absorb?", "options": ["Oxygen", "Carbon dioxide", "Nitrogen", "Helium"], "correct_answer": "Carbon dioxide", "explanation": "Plants take in CO2 for photosynthesis."},
  {"question": "Where does photosynthesis happen?", "options": ["Roots", "Stem", "Chloroplasts", "Flowers"], "correct_answer": "C", "explanation": "Chloroplasts hold chlorophyll."}
]`

func TestQuestionGenerator_ParsesDrafts(t *testing.T) {
	gen := &scriptedGenerator{replies: []scriptedReply{{text: "```json\n" + twoDrafts + "\n```"}}}
	qg := NewQuestionGenerator(gen, testOptions(), testLogger())

	drafts := qg.Generate(context.Background(), "Photosynthesis converts light into chemical energy.", "easy", 5)

	require.Len(t, drafts, 2)
	assert.Equal(t, "What gas do plants absorb?", drafts[0].Text)
	assert.Equal(t, "Carbon dioxide", drafts[0].CorrectOption)
	assert.Len(t, drafts[0].Options, DraftOptionCount)
	assert.Equal(t, "Chloroplasts", drafts[1].CorrectOption, "letter answers map to option text")

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Generate 5 multiple choice questions")
	assert.Contains(t, gen.prompts[0], "Difficulty: easy")
}

func TestQuestionGenerator_DefaultsDifficultyAndCount(t *testing.T) {
	gen := &scriptedGenerator{replies: []scriptedReply{{text: twoDrafts}}}
	qg := NewQuestionGenerator(gen, testOptions(), testLogger())

	qg.Generate(context.Background(), "content", "", 0)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Difficulty: medium")
	assert.Contains(t, gen.prompts[0], fmt.Sprintf("Generate %d multiple", DefaultDraftCount))
}

func TestQuestionGenerator_ParseFailureReturnsEmpty(t *testing.T) {
	cases := map[string]string{
		"prose":     "I cannot produce questions for this content.",
		"truncated": `[{"question": "What gas`,
		"object":    `{"question": "x"}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &scriptedGenerator{replies: []scriptedReply{{text: payload}}}
			qg := NewQuestionGenerator(gen, testOptions(), testLogger())

			drafts := qg.Generate(context.Background(), "content", "hard", 3)

			assert.NotNil(t, drafts)
			assert.Empty(t, drafts)
			assert.Equal(t, 1, gen.calls())
		})
	}
}

func TestQuestionGenerator_DropsInvalidDrafts(t *testing.T) {
	payload := `[
	  {"question": "Three options only", "options": ["a", "b", "c"], "correct_answer": "a"},
	  {"question": "Answer not among options", "options": ["a", "b", "c", "d"], "correct_answer": "z"},
	  {"question": "", "options": ["a", "b", "c", "d"], "correct_answer": "a"},
	  {"question": "Valid", "options": ["a", "b", "c", "d"], "correct_answer": "b"}
	]`
	gen := &scriptedGenerator{replies: []scriptedReply{{text: payload}}}
	qg := NewQuestionGenerator(gen, testOptions(), testLogger())

	drafts := qg.Generate(context.Background(), "content", "medium", 5)

	require.Len(t, drafts, 1)
	assert.Equal(t, "Valid", drafts[0].Text)
	assert.Equal(t, "b", drafts[0].CorrectOption)
}

func TestQuestionGenerator_ServiceFailureReturnsEmpty(t *testing.T) {
	gen := &scriptedGenerator{replies: []scriptedReply{{err: fmt.Errorf("%w: unavailable", ErrTransient)}}}
	qg := NewQuestionGenerator(gen, testOptions(), testLogger())

	drafts := qg.Generate(context.Background(), "content", "medium", 5)

	assert.Empty(t, drafts)
	assert.Equal(t, 2, gen.calls())
}

func TestQuestionGenerator_EmptySourceSkipsCall(t *testing.T) {
	gen := &scriptedGenerator{replies: []scriptedReply{{text: twoDrafts}}}
	qg := NewQuestionGenerator(gen, testOptions(), testLogger())

	assert.Empty(t, qg.Generate(context.Background(), "   ", "easy", 5))
	assert.Equal(t, 0, gen.calls())
}

func TestQuestionGenerator_LetterOptionsMatchByText(t *testing.T) {
	payload := `[{"question": "Which grade is highest?", "options": ["D", "C", "B", "A"], "correct_answer": "A"}]`
	gen := &scriptedGenerator{replies: []scriptedReply{{text: payload}}}
	qg := NewQuestionGenerator(gen, testOptions(), testLogger())

	drafts := qg.Generate(context.Background(), "content", "easy", 1)

	require.Len(t, drafts, 1)
	assert.Equal(t, "A", drafts[0].CorrectOption)
}
