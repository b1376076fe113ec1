package quiz

import (
	"errors"
	"testing"

	"github.com/stemsi/exstem-cbt/internal/model"
)

func TestScoreUnsupportedTypeFailsClosed(t *testing.T) {
	essay := model.Question{ID: "e1", Type: "essay", Stem: "Explain.", Tags: []string{"W"}}
	b := mustBank(t, essay, single("q1", 0, "W"))

	answers := map[string]model.Answer{
		"e1": {Type: "essay", ChoiceIndex: 0},
		"q1": {Type: model.QuestionTypeSingle, ChoiceIndex: 0},
	}
	res, err := Score([]string{"e1", "q1"}, answers, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 1 {
		t.Fatalf("expected only q1 correct, got %d", res.Score)
	}
	if res.TagStats["W"] != (model.TagStat{Count: 2, Correct: 1}) {
		t.Fatalf("unexpected tag stat: %+v", res.TagStats["W"])
	}
}

func TestScoreAnswerTypeMismatchIsIncorrect(t *testing.T) {
	b := mustBank(t, single("q1", 0))
	res, _ := Score([]string{"q1"}, map[string]model.Answer{"q1": {Type: "multi", ChoiceIndex: 0}}, b)
	if res.Score != 0 {
		t.Fatal("mismatched answer type must not score")
	}
}

func TestScoreMissingQuestionReportsIntegrityError(t *testing.T) {
	b := mustBank(t, single("q1", 0, "A"))
	res, err := Score([]string{"gone", "q1"}, map[string]model.Answer{
		"gone": {Type: model.QuestionTypeSingle},
		"q1":   {Type: model.QuestionTypeSingle, ChoiceIndex: 0},
	}, b)

	var integrity *DataIntegrityError
	if !errors.As(err, &integrity) || integrity.QuestionID != "gone" {
		t.Fatalf("expected integrity error for gone, got %v", err)
	}
	if res.Score != 1 || len(res.TagStats) != 1 {
		t.Fatalf("missing question must contribute nothing: %+v", res)
	}
}

func TestIsCorrectNilAnswer(t *testing.T) {
	q := single("q1", 2)
	if IsCorrect(&q, nil) {
		t.Fatal("unanswered must be incorrect")
	}
}

func TestTransitionTable(t *testing.T) {
	to, err := Transition(model.SessionStatusInProgress, EventSubmit)
	if err != nil || to != model.SessionStatusSubmitted {
		t.Fatalf("expected submitted, got %s (%v)", to, err)
	}
	for _, ev := range []Event{EventAnswer, EventAdvance, EventRetreat, EventSubmit} {
		if _, err := Transition(model.SessionStatusSubmitted, ev); !errors.Is(err, ErrIllegalTransition) {
			t.Fatalf("%s accepted after submit", ev)
		}
	}
}
