package model

// QuestionType is the variant tag of a question.
type QuestionType string

const (
	// QuestionTypeSingle is a single-choice question graded by CorrectIndex.
	QuestionTypeSingle QuestionType = "single"
)

// UncategorizedTag is the tag assigned to questions that carry none.
const UncategorizedTag = "(uncategorized)"

// Question is an immutable bank entry.
type Question struct {
	ID           string       `json:"id" yaml:"id" validate:"required,max=128"`
	Type         QuestionType `json:"type" yaml:"type" validate:"required"`
	Stem         string       `json:"stem" yaml:"stem" validate:"required"`
	Options      []string     `json:"options" yaml:"options" validate:"dive,required"`
	CorrectIndex int          `json:"correctIndex" yaml:"correctIndex" validate:"min=0"`
	Tags         []string     `json:"tags,omitempty" yaml:"tags" validate:"dive,required"`
	Explanation  string       `json:"explanation,omitempty" yaml:"explanation"`
}

// CategoryTags returns the tags used for aggregation, never empty.
func (q *Question) CategoryTags() []string {
	if len(q.Tags) == 0 {
		return []string{UncategorizedTag}
	}
	return q.Tags
}

// Answer is the test-taker's response to one question.
// ChoiceIndex is always stored in bank order, regardless of display shuffling.
type Answer struct {
	Type        QuestionType `json:"type"`
	ChoiceIndex int          `json:"choiceIndex"`
}
