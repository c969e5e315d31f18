package service

import (
	"strings"

	"github.com/set-night/swsupport/internal/config"
)

const systemPrompt = `You are a SolidWorks technical expert. Follow these response guidelines:

**Context Assessment - CRITICAL:**
- If the user's question lacks sufficient context, ask a minimum of 3 specific clarifying questions BEFORE providing any solution
- Examples of insufficient context: vague terms like "it crashes", "doesn't work", "having issues", "won't start"
- Always ask for: SolidWorks version, specific error messages, exact steps that lead to the problem, system specs if relevant

**Response Format - MANDATORY:**
- Structure responses with clear markdown headings, links and numbered steps
- Include specific SolidWorks terminology and version details
- Provide step-by-step solutions with exact menu paths
- Use code blocks for settings, file paths, or registry entries
- Include the sources you used from the summaries in the answer, in markdown link format (e.g. [text](link)). THIS IS A MUST

**Response Tone:**
- Professional and helpful for experienced SolidWorks users
- Direct and technical but accessible
- Ask for clarification when context is missing

**Validation:**
- Only respond to SolidWorks-related queries
- If the question is not about SolidWorks, politely decline and ask for a SolidWorks-specific question. THIS IS A MUST
- Always prioritize getting complete context before providing solutions`

const (
	contextInstruction = " - Before providing solution, ask for specific context: SolidWorks version, exact error messages, " +
		"specific steps that cause the issue, and system details if relevant. Then provide comprehensive solution " +
		"with official sources and documentation links."
	troubleshootInstruction = " troubleshooting solution with official SolidWorks documentation sources and forums"
	howToInstruction        = " step-by-step procedure with official SolidWorks help documentation"
	genericInstruction      = " with official SolidWorks documentation and community sources"
)

// TermLists holds the phrase lists the formatter matches against.
type TermLists struct {
	Vague    []string
	Specific []string
	Failure  []string
	HowTo    []string
}

func DefaultTermLists() TermLists {
	return TermLists{
		Vague:    config.VagueTerms,
		Specific: config.SpecificTerms,
		Failure:  config.FailureTerms,
		HowTo:    config.HowToTerms,
	}
}

type PromptFormatter struct {
	terms TermLists
}

func NewPromptFormatter(terms TermLists) *PromptFormatter {
	return &PromptFormatter{terms: terms}
}

func (f *PromptFormatter) SystemPrompt() string {
	return systemPrompt
}

// RewriteQuery appends a search-oriented instruction to the user's text.
// The first matching rule wins:
//  1. vague wording without specifics asks the model to gather context first
//  2. failure wording asks for troubleshooting with official sources
//  3. how-to wording asks for a step-by-step procedure
//  4. anything else asks for documentation and community sources
func (f *PromptFormatter) RewriteQuery(text string) string {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, f.terms.Vague) && !containsAny(lower, f.terms.Specific):
		return text + contextInstruction
	case containsAny(lower, f.terms.Failure):
		return text + troubleshootInstruction
	case containsAny(lower, f.terms.HowTo):
		return text + howToInstruction
	default:
		return text + genericInstruction
	}
}

// containsAny reports whether lower contains any of terms, ignoring case.
func containsAny(lower string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
