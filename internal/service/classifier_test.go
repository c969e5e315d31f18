package service

import (
	"testing"

	"github.com/set-night/swsupport/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPhraseClassifier(t *testing.T) {
	c := NewPhraseClassifier(nil)

	assert.Equal(t, domain.CategoryContextRequest, c.Classify("Which version are you using?"))
	assert.Equal(t, domain.CategoryContextRequest, c.Classify("I need more information about the error"))
	assert.Equal(t, domain.CategorySuccess, c.Classify("## Steps\n1. Open the part"))

	// deterministic
	for i := 0; i < 3; i++ {
		assert.Equal(t, domain.CategoryContextRequest, c.Classify("could you clarify the steps"))
	}
}

func TestPhraseClassifierCustomPhrases(t *testing.T) {
	c := NewPhraseClassifier([]string{"tell me more"})
	assert.Equal(t, domain.CategoryContextRequest, c.Classify("Please TELL ME MORE"))
	assert.Equal(t, domain.CategorySuccess, c.Classify("which version are you using"))
}
