// Package bank loads and validates the immutable question bank.
package bank

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/stemsi/exstem-cbt/internal/model"
)

//go:embed default_bank.yaml
var defaultBank []byte

// Domain Errors
var (
	ErrEmptyBank         = errors.New("question bank is empty")
	ErrDuplicateID       = errors.New("duplicate question id")
	ErrNoOptions         = errors.New("single-choice question has no options")
	ErrCorrectIndexRange = errors.New("correct index out of range")
	ErrUnsupportedFormat = errors.New("unsupported bank format")
	ErrInvalidQuestion   = errors.New("invalid question")
)

// Format names accepted by Parse.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

var validate = govalidator.New(govalidator.WithRequiredStructEnabled())

type document struct {
	Questions []model.Question `json:"questions" yaml:"questions"`
}

// Bank is an ordered, read-only list of questions indexed by id.
type Bank struct {
	questions []model.Question
	byID      map[string]int
}

// New validates questions and builds a bank preserving their order.
// Questions of types other than single are accepted; scoring treats them as incorrect.
func New(questions []model.Question) (*Bank, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyBank
	}

	b := &Bank{
		questions: make([]model.Question, len(questions)),
		byID:      make(map[string]int, len(questions)),
	}
	copy(b.questions, questions)

	for i := range b.questions {
		q := &b.questions[i]
		if err := validate.Struct(q); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidQuestion, q.ID, err)
		}
		if _, dup := b.byID[q.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, q.ID)
		}
		if q.Type == model.QuestionTypeSingle {
			if len(q.Options) == 0 {
				return nil, fmt.Errorf("%w: %s", ErrNoOptions, q.ID)
			}
			if q.CorrectIndex >= len(q.Options) {
				return nil, fmt.Errorf("%w: %s has %d options, correct index %d",
					ErrCorrectIndexRange, q.ID, len(q.Options), q.CorrectIndex)
			}
		}
		b.byID[q.ID] = i
	}

	return b, nil
}

// Parse decodes a bank document in the given format.
func Parse(data []byte, format string) (*Bank, error) {
	var doc document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml bank: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode json bank: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return New(doc.Questions)
}

// Load reads a bank file; the format is chosen by extension.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Parse(data, FormatYAML)
	case ".json":
		return Parse(data, FormatJSON)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Default returns the bank compiled into the binary.
func Default() (*Bank, error) {
	return Parse(defaultBank, FormatYAML)
}

// LoadOrDefault loads path, or the embedded bank when path is empty.
func LoadOrDefault(path string) (*Bank, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// Get looks up a question by id.
func (b *Bank) Get(id string) (*model.Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return nil, false
	}
	return &b.questions[i], true
}

// Has reports whether id belongs to the bank.
func (b *Bank) Has(id string) bool {
	_, ok := b.byID[id]
	return ok
}

// IDs returns the question ids in bank order.
func (b *Bank) IDs() []string {
	ids := make([]string, len(b.questions))
	for i := range b.questions {
		ids[i] = b.questions[i].ID
	}
	return ids
}

// Len returns the number of questions.
func (b *Bank) Len() int {
	return len(b.questions)
}
