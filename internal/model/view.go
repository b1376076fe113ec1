package model

// OptionView is one choice as displayed. Index is the display position.
type OptionView struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// QuestionView is the active question without its correct answer.
type QuestionView struct {
	ID       string       `json:"id"`
	Number   int          `json:"number"`
	Type     QuestionType `json:"type"`
	Stem     string       `json:"stem"`
	Options  []OptionView `json:"options"`
	Selected *int         `json:"selected,omitempty"`
}

// SessionView is what the presentation layer renders.
type SessionView struct {
	Title       string        `json:"title"`
	Status      SessionStatus `json:"status"`
	Current     int           `json:"current"`
	Total       int           `json:"total"`
	Progress    float64       `json:"progress"`
	Question    *QuestionView `json:"question,omitempty"`
	CanRetreat  bool          `json:"can_retreat"`
	IsLast      bool          `json:"is_last"`
	TimeLimited bool          `json:"time_limited"`
	RemainingMs *int64        `json:"remaining_ms,omitempty"`
	Result      *ResultView   `json:"result,omitempty"`
}

// TagStatView is a TagStat with its label and rounded percentage.
type TagStatView struct {
	Tag     string `json:"tag"`
	Count   int    `json:"count"`
	Correct int    `json:"correct"`
	Percent int    `json:"percent"`
}

// MissedQuestion is a stem-only review entry. Number is the 1-based presentation position.
type MissedQuestion struct {
	Number     int    `json:"number"`
	QuestionID string `json:"question_id"`
	Stem       string `json:"stem"`
}

// ResultView summarises a submitted session.
type ResultView struct {
	Score      int              `json:"score"`
	Total      int              `json:"total"`
	Percent    int              `json:"percent"`
	ElapsedMs  *int64           `json:"elapsed_ms,omitempty"`
	TagStats   []TagStatView    `json:"tag_stats"`
	ShowMissed bool             `json:"show_missed"`
	Missed     []MissedQuestion `json:"missed,omitempty"`
}

// ResultExport is the downloadable result document.
type ResultExport struct {
	Score    int                `json:"score"`
	Answers  map[string]Answer  `json:"answers"`
	TagStats map[string]TagStat `json:"tagStats"`
}

// RecordAnswerRequest is the payload for answering the active question.
// ChoiceIndex is the display index the test-taker picked.
type RecordAnswerRequest struct {
	QuestionID  string `json:"question_id" binding:"required,max=128"`
	ChoiceIndex *int   `json:"choice_index" binding:"required,min=0,max=64"`
}
