package bank

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stemsi/exstem-cbt/internal/model"
)

func single(id string, correct int, tags ...string) model.Question {
	return model.Question{
		ID:           id,
		Type:         model.QuestionTypeSingle,
		Stem:         "stem " + id,
		Options:      []string{"A", "B", "C", "D"},
		CorrectIndex: correct,
		Tags:         tags,
	}
}

func TestDefaultBankLoads(t *testing.T) {
	b, err := Default()
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}
	if b.Len() == 0 {
		t.Fatal("expected questions in default bank")
	}
	q, ok := b.Get("q1")
	if !ok {
		t.Fatal("expected q1 in default bank")
	}
	if q.CorrectIndex != 1 || q.Type != model.QuestionTypeSingle {
		t.Fatalf("unexpected q1: %+v", q)
	}
}

func TestNewPreservesOrder(t *testing.T) {
	b, err := New([]model.Question{single("b", 0), single("a", 1), single("c", 2)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ids := b.IDs()
	if len(ids) != 3 || ids[0] != "b" || ids[1] != "a" || ids[2] != "c" {
		t.Fatalf("unexpected order: %v", ids)
	}
	if !b.Has("a") || b.Has("z") {
		t.Fatal("Has mismatch")
	}
}

func TestNewRejectsInvalidBanks(t *testing.T) {
	noOptions := single("q1", 0)
	noOptions.Options = nil

	cases := []struct {
		name      string
		questions []model.Question
		want      error
	}{
		{"empty", nil, ErrEmptyBank},
		{"duplicate", []model.Question{single("q1", 0), single("q1", 1)}, ErrDuplicateID},
		{"correct index", []model.Question{single("q1", 4)}, ErrCorrectIndexRange},
		{"no options", []model.Question{noOptions}, ErrNoOptions},
		{"missing stem", []model.Question{{ID: "q1", Type: model.QuestionTypeSingle, Options: []string{"A"}}}, ErrInvalidQuestion},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.questions)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewAcceptsUnsupportedTypes(t *testing.T) {
	essay := model.Question{ID: "e1", Type: "essay", Stem: "Explain auxin."}
	b, err := New([]model.Question{essay, single("q1", 0)})
	if err != nil {
		t.Fatalf("expected essay to load, got %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 questions, got %d", b.Len())
	}
}

func TestLoadJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.json")
	data := `{"questions":[{"id":"x","type":"single","stem":"?","options":["a","b"],"correctIndex":1}]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	q, _ := b.Get("x")
	if q.CorrectIndex != 1 || len(q.CategoryTags()) != 1 || q.CategoryTags()[0] != model.UncategorizedTag {
		t.Fatalf("unexpected question: %+v", q)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.txt")
	if err := os.WriteFile(path, []byte("questions: []"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
