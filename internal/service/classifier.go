package service

import (
	"strings"

	"github.com/set-night/swsupport/internal/config"
	"github.com/set-night/swsupport/internal/domain"
)

// Classifier decides the category of a successful provider reply.
type Classifier interface {
	Classify(text string) domain.Category
}

// PhraseClassifier flags replies containing any context-soliciting phrase.
type PhraseClassifier struct {
	phrases []string
}

func NewPhraseClassifier(phrases []string) *PhraseClassifier {
	if phrases == nil {
		phrases = config.ContextPhrases
	}
	return &PhraseClassifier{phrases: phrases}
}

func (c *PhraseClassifier) Classify(text string) domain.Category {
	if containsAny(strings.ToLower(text), c.phrases) {
		return domain.CategoryContextRequest
	}
	return domain.CategorySuccess
}
