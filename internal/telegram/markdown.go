package telegram

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// SplitMessage splits a message into chunks of maxLen characters,
// trying to split at newlines when possible.
func SplitMessage(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	for len(text) > 0 {
		if utf8.RuneCountInString(text) <= maxLen {
			parts = append(parts, text)
			break
		}

		// Find split point
		runes := []rune(text)
		splitAt := maxLen

		// Try to split at a newline
		chunk := string(runes[:maxLen])
		lastNewline := strings.LastIndex(chunk, "\n")
		if lastNewline > maxLen/2 {
			splitAt = lastNewline + 1
		}

		parts = append(parts, string(runes[:splitAt]))
		text = string(runes[splitAt:])
	}

	return parts
}

// FixMarkdown attempts to fix common markdown issues.
func FixMarkdown(text string) string {
	// Fix unclosed code blocks
	codeBlockCount := strings.Count(text, "```")
	if codeBlockCount%2 != 0 {
		text += "\n```"
	}

	// Fix unclosed inline code (outside of code blocks)
	result := fixInlineCode(text)
	return result
}

func fixInlineCode(text string) string {
	var builder strings.Builder
	inCodeBlock := false
	inlineOpen := false

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		// Check for code blocks
		if i+2 < len(runes) && string(runes[i:i+3]) == "```" {
			if inlineOpen {
				builder.WriteRune('`')
				inlineOpen = false
			}
			inCodeBlock = !inCodeBlock
			builder.WriteString("```")
			i += 2
			continue
		}

		if !inCodeBlock && runes[i] == '`' {
			inlineOpen = !inlineOpen
		}

		builder.WriteRune(runes[i])
	}

	if inlineOpen {
		builder.WriteRune('`')
	}

	return builder.String()
}

var (
	htmlTag     = regexp.MustCompile(`(?i)</?(br|p|div|span|sup|sub|b|i|u|strong|em|small)\b[^>]*>`)
	codeSegment = regexp.MustCompile("(?s)```.*?(?:```|\\z)|`[^`\n]*`")
)

// Code spans are swapped for these markers while the HTML parser runs.
const (
	codeMarkOpen  = "\uE000"
	codeMarkClose = "\uE001"
)

// StripHTML removes inline HTML tags that completion models sometimes mix
// into markdown. Text without such tags is returned unchanged. Code spans and
// fenced blocks are kept verbatim, and a "<" that does not open a known tag
// stays literal text.
func StripHTML(text string) string {
	if !htmlTag.MatchString(text) {
		return text
	}

	var code []string
	prose := codeSegment.ReplaceAllStringFunc(text, func(seg string) string {
		code = append(code, seg)
		return codeMarkOpen + strconv.Itoa(len(code)-1) + codeMarkClose
	})

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(escapeStrayLT(prose)))
	if err != nil {
		return text
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	out := strings.TrimSpace(doc.Text())

	pairs := make([]string, 0, 2*len(code))
	for i, seg := range code {
		pairs = append(pairs, codeMarkOpen+strconv.Itoa(i)+codeMarkClose, seg)
	}
	return strings.NewReplacer(pairs...).Replace(out)
}

// escapeStrayLT HTML-escapes every "<" that is not part of a known tag.
func escapeStrayLT(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range htmlTag.FindAllStringIndex(s, -1) {
		b.WriteString(strings.ReplaceAll(s[last:loc[0]], "<", "&lt;"))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strings.ReplaceAll(s[last:], "<", "&lt;"))
	return b.String()
}
