package quiz

import (
	"errors"
	"fmt"

	"github.com/stemsi/exstem-cbt/internal/bank"
	"github.com/stemsi/exstem-cbt/internal/model"
)

// DataIntegrityError reports a session question id that the bank does not contain.
type DataIntegrityError struct {
	QuestionID string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("question %q missing from bank", e.QuestionID)
}

// Result is the outcome of grading a session.
type Result struct {
	Score    int
	TagStats map[string]model.TagStat
}

// ScoreFunc grades a session. Score is the production implementation.
type ScoreFunc func(order []string, answers map[string]model.Answer, b *bank.Bank) (Result, error)

// predicates decide correctness per question type. Types without an entry are
// always graded incorrect.
var predicates = map[model.QuestionType]func(q *model.Question, a model.Answer) bool{
	model.QuestionTypeSingle: func(q *model.Question, a model.Answer) bool {
		return a.ChoiceIndex == q.CorrectIndex
	},
}

// IsCorrect grades one answer. A nil answer, a type mismatch or an
// unsupported question type is incorrect.
func IsCorrect(q *model.Question, a *model.Answer) bool {
	if q == nil || a == nil || a.Type != q.Type {
		return false
	}
	pred, ok := predicates[q.Type]
	if !ok {
		return false
	}
	return pred(q, *a)
}

// Score walks order and tallies correct answers overall and per tag.
// Ids missing from the bank contribute nothing; they are returned joined in
// the error while the result stays usable.
func Score(order []string, answers map[string]model.Answer, b *bank.Bank) (Result, error) {
	res := Result{TagStats: make(map[string]model.TagStat)}
	var issues []error

	for _, id := range order {
		q, ok := b.Get(id)
		if !ok {
			issues = append(issues, &DataIntegrityError{QuestionID: id})
			continue
		}

		var ans *model.Answer
		if a, answered := answers[id]; answered {
			ans = &a
		}
		correct := IsCorrect(q, ans)
		if correct {
			res.Score++
		}

		for _, tag := range q.CategoryTags() {
			st := res.TagStats[tag]
			st.Count++
			if correct {
				st.Correct++
			}
			res.TagStats[tag] = st
		}
	}

	return res, errors.Join(issues...)
}
