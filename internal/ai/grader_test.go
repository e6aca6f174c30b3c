package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReply struct {
	text  string
	err   error
	delay time.Duration
}

// scriptedGenerator replays replies in order and repeats the last one.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []scriptedReply
	prompts []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	idx := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	if idx >= len(g.replies) {
		idx = len(g.replies) - 1
	}
	reply := g.replies[idx]
	g.mu.Unlock()

	if reply.delay > 0 {
		select {
		case <-time.After(reply.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply.text, reply.err
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	return Options{
		Timeout:      time.Second,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
		ModelName:    "test-model",
	}
}

var sampleRequest = GradeRequest{
	Question:       "What is photosynthesis?",
	Reference:      "The process by which plants convert light energy into chemical energy.",
	KeyPoints:      []string{"light energy", "chemical energy"},
	CommonMistakes: []string{"confusing with respiration"},
	StudentAnswer:  "Plants use sunlight to make food.",
}

func TestGrader_WellFormedResponse(t *testing.T) {
	gen := &scriptedGenerator{replies: []scriptedReply{{text: `{"score":85,"feedback":"Good","is_correct":true}`}}}
	grader := NewGrader(gen, testOptions(), testLogger())

	v := grader.Grade(context.Background(), sampleRequest)

	assert.Equal(t, 85.0, v.Score)
	assert.Equal(t, "Good", v.Feedback)
	assert.True(t, v.IsCorrect)
	assert.False(t, v.Degraded)
	assert.Empty(t, v.Reason)
	assert.Equal(t, 1, v.Calls)
	assert.Equal(t, "test-model", v.Model)
}

func TestGrader_PromptEmbedsInputs(t *testing.T) {
	gen := &scriptedGenerator{replies: []scriptedReply{{text: `{"score":10,"feedback":"","is_correct":false}`}}}
	grader := NewGrader(gen, testOptions(), testLogger())

	grader.Grade(context.Background(), sampleRequest)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Question: What is photosynthesis?")
	assert.Contains(t, prompt, "Model Answer: The process by which plants")
	assert.Contains(t, prompt, "Student Answer: Plants use sunlight to make food.")
	assert.Contains(t, prompt, "Key Points: light energy; chemical energy")
	assert.Contains(t, prompt, "Common Mistakes: confusing with respiration")
	assert.Contains(t, prompt, `"is_correct"`)
}

func TestGrader_MalformedResponsesFallBack(t *testing.T) {
	cases := map[string]string{
		"prose":              "The answer looks mostly right to me.",
		"truncated":          `{"score": 85, "feedback": "Go`,
		"missing is_correct": `{"score": 85, "feedback": "Good"}`,
		"missing score":      `{"feedback": "Good", "is_correct": true}`,
		"wrong types":        `{"score": "high", "feedback": "Good", "is_correct": "yes"}`,
		"empty":              "",
		"nan score":          `{"score": "NaN", "feedback": "x", "is_correct": true}`,
		"infinite score":     `{"score": "+Inf", "feedback": "x", "is_correct": true}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &scriptedGenerator{replies: []scriptedReply{{text: payload}}}
			grader := NewGrader(gen, testOptions(), testLogger())

			v := grader.Grade(context.Background(), sampleRequest)

			assert.Equal(t, FallbackScore, v.Score)
			assert.Equal(t, "Answer evaluated", v.Feedback)
			assert.False(t, v.IsCorrect)
			assert.True(t, v.Degraded)
			assert.Equal(t, ReasonMalformed, v.Reason)
			assert.Equal(t, 1, gen.calls(), "malformed output must not be retried")
		})
	}
}

func TestGrader_ToleratesFencesAndProse(t *testing.T) {
	payload := "Here is my evaluation:\n```json\n{\"score\": \"72\", \"feedback\": \" Partially correct \", \"is_correct\": false}\n```\nHope this helps."
	gen := &scriptedGenerator{replies: []scriptedReply{{text: payload}}}
	grader := NewGrader(gen, testOptions(), testLogger())

	v := grader.Grade(context.Background(), sampleRequest)

	assert.False(t, v.Degraded)
	assert.Equal(t, 72.0, v.Score)
	assert.Equal(t, "Partially correct", v.Feedback)
	assert.False(t, v.IsCorrect)
}

func TestGrader_ClampsScore(t *testing.T) {
	gen := &scriptedGenerator{replies: []scriptedReply{{text: `{"score":130,"feedback":"Excellent","is_correct":true}`}}}
	grader := NewGrader(gen, testOptions(), testLogger())

	v := grader.Grade(context.Background(), sampleRequest)
	assert.Equal(t, 100.0, v.Score)
}

func TestGrader_RetriesTransientFailureOnce(t *testing.T) {
	gen := &scriptedGenerator{replies: []scriptedReply{
		{err: fmt.Errorf("%w: 503", ErrTransient)},
		{text: `{"score":60,"feedback":"Okay","is_correct":true}`},
	}}
	grader := NewGrader(gen, testOptions(), testLogger())

	v := grader.Grade(context.Background(), sampleRequest)

	assert.False(t, v.Degraded)
	assert.Equal(t, 60.0, v.Score)
	assert.Equal(t, 2, v.Calls)
}

func TestGrader_TransientFailureExhaustsRetries(t *testing.T) {
	gen := &scriptedGenerator{replies: []scriptedReply{{err: fmt.Errorf("%w: 503", ErrTransient)}}}
	grader := NewGrader(gen, testOptions(), testLogger())

	v := grader.Grade(context.Background(), sampleRequest)

	assert.Equal(t, FallbackVerdict(ReasonUnavailable).Score, v.Score)
	assert.Equal(t, ReasonUnavailable, v.Reason)
	assert.True(t, v.Degraded)
	assert.Equal(t, 2, gen.calls())
}

func TestGrader_PermanentFailuresAreNotRetried(t *testing.T) {
	cases := map[string]struct {
		err    error
		reason DegradedReason
	}{
		"refused":        {err: fmt.Errorf("%w: safety", ErrRefused), reason: ReasonRefused},
		"not configured": {err: ErrNotConfigured, reason: ReasonNotConfigured},
		"bad request":    {err: errors.New("gemini request failed: 400 invalid argument"), reason: ReasonUnavailable},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &scriptedGenerator{replies: []scriptedReply{{err: tc.err}}}
			grader := NewGrader(gen, testOptions(), testLogger())

			v := grader.Grade(context.Background(), sampleRequest)

			assert.True(t, v.Degraded)
			assert.Equal(t, tc.reason, v.Reason)
			assert.Equal(t, "Answer evaluated", v.Feedback)
			assert.Equal(t, 1, gen.calls())
		})
	}
}

func TestGrader_TimeoutDegrades(t *testing.T) {
	gen := &scriptedGenerator{replies: []scriptedReply{{delay: time.Second}}}
	opts := testOptions()
	opts.Timeout = 10 * time.Millisecond
	grader := NewGrader(gen, opts, testLogger())

	v := grader.Grade(context.Background(), sampleRequest)

	assert.True(t, v.Degraded)
	assert.Equal(t, ReasonTimeout, v.Reason)
	assert.Equal(t, 2, gen.calls(), "timeouts are transient and retried once")
}

func TestGrader_RateLimitWaitCountsAsTimeout(t *testing.T) {
	gen := &scriptedGenerator{replies: []scriptedReply{{text: `{"score": 90, "feedback": "Good", "is_correct": true}`}}}
	opts := testOptions()
	opts.Timeout = 50 * time.Millisecond
	opts.MaxRetries = 0
	opts.RatePerSecond = 0.1
	opts.Burst = 1
	grader := NewGrader(gen, opts, testLogger())

	first := grader.Grade(context.Background(), sampleRequest)
	require.False(t, first.Degraded)

	start := time.Now()
	second := grader.Grade(context.Background(), sampleRequest)

	assert.True(t, second.Degraded)
	assert.Equal(t, ReasonTimeout, second.Reason)
	assert.Less(t, time.Since(start), opts.MaxCallDuration())
	assert.Equal(t, 1, gen.calls(), "a saturated limiter never reaches the model")
}

func TestOptions_MaxCallDuration(t *testing.T) {
	opts := Options{Timeout: 10 * time.Second, MaxRetries: 2, RetryBackoff: time.Second}
	assert.Equal(t, 32*time.Second, opts.MaxCallDuration())

	assert.Equal(t, defaultTimeout, Options{}.MaxCallDuration(), "unset values use the caller defaults")
	assert.Equal(t, defaultTimeout, Options{MaxRetries: -3}.MaxCallDuration())
}

func TestNewUnconfiguredGenerator(t *testing.T) {
	grader := NewGrader(NewUnconfiguredGenerator(), testOptions(), testLogger())

	v := grader.Grade(context.Background(), sampleRequest)

	assert.Equal(t, FallbackVerdict(ReasonNotConfigured).Feedback, v.Feedback)
	assert.Equal(t, ReasonNotConfigured, v.Reason)
}
