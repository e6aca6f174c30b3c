package ai

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	errMalformed = errors.New("malformed model response")
	errNotFinite = errors.New("score is not a finite number")
)

// extractJSON pulls the first JSON value delimited by opening/closing out of raw
// model output, tolerating markdown fences and surrounding prose.
func extractJSON(raw string, opening, closing byte) (string, bool) {
	text := strings.TrimSpace(raw)

	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		text = strings.TrimSpace(rest)
	}

	start := strings.IndexByte(text, opening)
	end := strings.LastIndexByte(text, closing)
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// flexNumber accepts 85, 85.5 and "85".
type flexNumber struct {
	value float64
	set   bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if v, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return err
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errNotFinite
	}
	n.value, n.set = v, true
	return nil
}

type gradingPayload struct {
	Score     flexNumber `json:"score"`
	Feedback  *string    `json:"feedback"`
	IsCorrect *bool      `json:"is_correct"`
}

// parseVerdict requires score and is_correct; feedback defaults to empty.
func parseVerdict(raw string) (Verdict, error) {
	body, ok := extractJSON(raw, '{', '}')
	if !ok {
		return Verdict{}, errMalformed
	}

	var p gradingPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return Verdict{}, errors.Join(errMalformed, err)
	}
	if !p.Score.set || p.IsCorrect == nil {
		return Verdict{}, errMalformed
	}

	v := Verdict{
		Score:     clampScore(p.Score.value),
		IsCorrect: *p.IsCorrect,
	}
	if p.Feedback != nil {
		v.Feedback = strings.TrimSpace(*p.Feedback)
	}
	return v, nil
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 100:
		return 100
	}
	return s
}

type draftPayload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// parseDrafts returns only well-formed drafts; any parse error yields nil.
func parseDrafts(raw string) []DraftQuestion {
	body, ok := extractJSON(raw, '[', ']')
	if !ok {
		return nil
	}

	var payload []draftPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil
	}

	drafts := make([]DraftQuestion, 0, len(payload))
	for _, p := range payload {
		if d, ok := normalizeDraft(p); ok {
			drafts = append(drafts, d)
		}
	}
	return drafts
}

func normalizeDraft(p draftPayload) (DraftQuestion, bool) {
	text := strings.TrimSpace(p.Question)
	if text == "" || len(p.Options) != DraftOptionCount {
		return DraftQuestion{}, false
	}

	options := make([]string, len(p.Options))
	for i, o := range p.Options {
		options[i] = strings.TrimSpace(o)
		if options[i] == "" {
			return DraftQuestion{}, false
		}
	}

	correct, ok := matchOption(options, strings.TrimSpace(p.CorrectAnswer))
	if !ok {
		return DraftQuestion{}, false
	}
	return DraftQuestion{
		Text:          text,
		Options:       options,
		CorrectOption: correct,
		Explanation:   strings.TrimSpace(p.Explanation),
	}, true
}

// matchOption prefers an option with the same text; a bare letter that
// matches none refers to the option at that position.
func matchOption(options []string, answer string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(o, answer) {
			return o, true
		}
	}
	if len(answer) == 1 {
		if idx := int(strings.ToUpper(answer)[0]) - 'A'; idx >= 0 && idx < len(options) {
			return options[idx], true
		}
	}
	return "", false
}
