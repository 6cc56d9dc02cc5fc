// Package story_test tests the story extraction pipeline.
package story_test

import (
	"strings"
	"testing"

	"github.com/book-expert/storypipe/internal/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mayaOpening = "Maya discovered an old music box in her grandmother's attic. When she wound the tiny key, " +
		"a delicate ballerina began to spin, and magical notes filled the air."
	mayaEnding = "As the final note played, Maya found herself back in the dusty attic, clutching a tiny silver key."
)

func longParagraph(name string) string {
	return strings.TrimSpace(strings.Repeat(name+" walked over the green hill. ", 5))
}

func TestExtract_EndToEndScenario(t *testing.T) {
	t.Parallel()

	input := "Illustrated by Jane Doe\n\n" +
		mayaOpening + "\n\n" +
		"Page 7\n\n" +
		"Visit our website www.example.com\n\n" +
		mayaEnding + "\n"

	result := story.Extract(input, story.DefaultRuleSet())

	assert.Equal(t, mayaOpening+"\n\n"+mayaEnding, result)
	assert.NotContains(t, result, "Illustrated")
	assert.NotContains(t, result, "Page 7")
	assert.NotContains(t, result, "example.com")
}

func TestSanitize_RemovesBoilerplate(t *testing.T) {
	t.Parallel()

	rules := story.DefaultRuleSet()

	tests := []struct {
		name    string
		line    string
		dropped bool
	}{
		{name: "rights notice", line: "All rights reserved.", dropped: true},
		{name: "copyright line", line: "Copyright 2021 Tiny Press", dropped: true},
		{name: "credit with colon", line: "Written by: Sam Lee", dropped: true},
		{name: "domain", line: "Follow us at patreon.com/author", dropped: true},
		{name: "domain any case", line: "Find us on YouTube.com today", dropped: true},
		{name: "hyphenated phrase kept", line: "Please, do not-for-resale this copy!", dropped: false},
		{name: "phrase inside sentence", line: "This is a free e-book, a FREE EBOOK for you", dropped: true},
		{name: "page keyword", line: "Page 42", dropped: true},
		{name: "bare number", line: "42", dropped: true},
		{name: "chapter heading", line: "Chapter 42", dropped: false},
		{name: "decorative separator", line: "* * * * * * *", dropped: true},
		{name: "short noise", line: "~~ Hi ~~", dropped: true},
		{name: "sparse before space collapse", line: "ab" + strings.Repeat(" ", 30) + "cdefg", dropped: true},
		{name: "table of contents", line: "Table of Contents", dropped: true},
		{name: "prose", line: "The fox ran across the frozen river.", dropped: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			input := "The first line of the story stays.\n" + testCase.line + "\nThe last line stays too."
			result := story.Sanitize(input, rules)

			lines := strings.Split(result, "\n")
			if testCase.dropped {
				assert.NotContains(t, lines, strings.TrimSpace(testCase.line))
				assert.NotContains(t, lines, strings.Join(strings.Fields(testCase.line), " "))
				assert.Len(t, lines, 2)
			} else {
				assert.Contains(t, lines, testCase.line)
				assert.Len(t, lines, 3)
			}
		})
	}
}

func TestSanitize_NormalizesText(t *testing.T) {
	t.Parallel()

	rules := story.DefaultRuleSet()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "crlf", input: "One little bird sang.\r\nTwo little birds sang.\rThree sang.", expected: "One little bird sang.\nTwo little birds sang.\nThree sang."},
		{name: "control characters", input: "The cat\x00 sat\x07 on the mat\x1f.", expected: "The cat sat on the mat."},
		{name: "email", input: "Write to me at jane@example.com any day now.", expected: "Write to me at any day now."},
		{name: "inline url", input: "The map at https://maps.example.com/x was old.", expected: "The map at was old."},
		{name: "zero width", input: "The\u200b quiet\ufeff forest\u200d slept.", expected: "The quiet forest slept."},
		{name: "collapses spaces", input: "The    wind   howled.", expected: "The wind howled."},
		{name: "collapses blank lines", input: "First part here.\n\n\n\n\nSecond part here.", expected: "First part here.\n\nSecond part here."},
		{name: "trims lines", input: "   Indented line here.   \n\tTabbed line here.", expected: "Indented line here.\nTabbed line here."},
		{name: "url only line becomes separator", input: "Alpha line here.\nhttp://example.com/page\nBeta line here.", expected: "Alpha line here.\n\nBeta line here."},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, story.Sanitize(testCase.input, rules))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	t.Parallel()

	rules := story.DefaultRuleSet()

	inputs := []string{
		"",
		"Illustrated by Jane Doe\n\n" + mayaOpening + "\n\nPage 7\n\nVisit our website www.example.com\n\n" + mayaEnding,
		"all  rights   reserved by nobody\nThe rabbit  hopped   away.",
		"Hello there, little friend \u200b\nwww\u200b.example.com is a site\n\u200b\nThe end came.",
		"Mail a@b.c\r\n\r\n\r\nCONTENTS\n12\nThe moon rose over   the quiet town.\x0c",
	}

	for _, input := range inputs {
		once := story.Sanitize(input, rules)
		twice := story.Sanitize(once, rules)
		assert.Equal(t, once, twice, "input %q", input)
	}
}

func TestSanitize_MonotonicReduction(t *testing.T) {
	t.Parallel()

	rules := story.DefaultRuleSet()
	input := "Copyright 2020\nThe owl blinked twice at the moon.\n\n3\nISBN 978-0-00-000000-0\nThe owl flew away."

	sanitized := story.Sanitize(input, rules)
	assert.LessOrEqual(t, len(strings.Split(sanitized, "\n")), len(strings.Split(input, "\n")))

	extracted := story.Extract(input, rules)
	assert.LessOrEqual(t, story.Length(extracted), story.Length(sanitized))
}

func TestClassify_Verdicts(t *testing.T) {
	t.Parallel()

	rules := story.DefaultRuleSet()

	tests := []struct {
		name      string
		paragraph string
		isStory   bool
	}{
		{name: "byline", paragraph: "By John Smith", isStory: false},
		{name: "title", paragraph: "THE GREAT ADVENTURE", isStory: false},
		{name: "long title", paragraph: "THE GREAT ADVENTURE OF LITTLE TOM", isStory: false},
		{name: "banned term", paragraph: "This lovely tale was illustrated by a wonderful artist named Sam.", isStory: false},
		{name: "drop phrase as banned term", paragraph: "Please support our mission so that every child can read a book.", isStory: false},
		{name: "prose", paragraph: "Tom and his dog walked slowly down the long road.", isStory: true},
		{name: "shouting dialogue", paragraph: "\"RUN,\" said Tom, and the dog ran home quickly.", isStory: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			classified := story.Classify(testCase.paragraph, rules)
			require.Len(t, classified, 1)
			assert.Equal(t, testCase.paragraph, classified[0].Text)
			assert.Equal(t, testCase.isStory, classified[0].IsStory)
		})
	}
}

func TestSplitParagraphs(t *testing.T) {
	t.Parallel()

	paragraphs := story.SplitParagraphs("  first block\nstill first \n \t \n\nsecond block\n\n\n   \n")
	assert.Equal(t, []string{"first block\nstill first", "second block"}, paragraphs)
	assert.Empty(t, story.SplitParagraphs(" \n\n \n"))
}

func TestAssemble_FallbackActivation(t *testing.T) {
	t.Parallel()

	rules := story.DefaultRuleSet()

	paragraphs := []string{
		"THE GREAT ADVENTURE OF TOM AND HIS DOG",
		"Tom ran.",
		"Tom and his dog walked slowly down the long road.",
	}
	text := strings.Join(paragraphs, "\n\n")

	classified := story.Classify(text, rules)
	require.Len(t, classified, 3)
	assert.False(t, classified[0].IsStory)
	assert.False(t, classified[1].IsStory)
	assert.True(t, classified[2].IsStory)

	result := story.Assemble(classified, rules, paragraphs)
	assert.Equal(t, text, result)
}

func TestAssemble_FallbackSkipsBannedParagraphs(t *testing.T) {
	t.Parallel()

	rules := story.DefaultRuleSet()
	paragraphs := []string{
		"Copyright 2020 Tiny Press",
		"Tom ran.",
		"Tom and his dog walked slowly down the long road.",
	}

	classified := story.Classify(strings.Join(paragraphs, "\n\n"), rules)
	result := story.Assemble(classified, rules, paragraphs)

	assert.Equal(t, "Tom ran.\n\nTom and his dog walked slowly down the long road.", result)
}

func TestAssemble_TrimsFrontAndBackMatter(t *testing.T) {
	t.Parallel()

	rules := story.DefaultRuleSet()
	lead := "Once upon a time in a faraway land there lived"
	tail := "The end of this tale came."
	body := []string{longParagraph("Mara"), longParagraph("Jonas"), longParagraph("Ines")}

	paragraphs := append(append([]string{lead}, body...), tail)
	classified := story.Classify(strings.Join(paragraphs, "\n\n"), rules)

	for _, paragraph := range classified {
		require.True(t, paragraph.IsStory, paragraph.Text)
	}

	result := story.Assemble(classified, rules, paragraphs)
	assert.Equal(t, strings.Join(body, "\n\n"), result)
	assert.GreaterOrEqual(t, story.Length(result), story.MinStoryLength)
}

func TestAssemble_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, story.Assemble(nil, story.DefaultRuleSet(), nil))
	assert.Empty(t, story.Extract("", story.DefaultRuleSet()))
}

func TestNewRuleSet_Validation(t *testing.T) {
	t.Parallel()

	valid := story.DefaultRuleConfig()

	tests := []struct {
		name    string
		mutate  func(cfg *story.RuleConfig)
		wantErr error
	}{
		{name: "no patterns", mutate: func(cfg *story.RuleConfig) { cfg.DropLinePatterns = nil }, wantErr: story.ErrNoLinePatterns},
		{name: "no phrases", mutate: func(cfg *story.RuleConfig) { cfg.DropPhrases = nil }, wantErr: story.ErrNoPhrases},
		{name: "no domains", mutate: func(cfg *story.RuleConfig) { cfg.DropDomains = []string{} }, wantErr: story.ErrNoDomains},
		{name: "bad pattern", mutate: func(cfg *story.RuleConfig) { cfg.DropLinePatterns = []string{`^(unclosed`} }, wantErr: story.ErrInvalidPattern},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			cfg := story.RuleConfig{
				DropLinePatterns: append([]string(nil), valid.DropLinePatterns...),
				DropPhrases:      append([]string(nil), valid.DropPhrases...),
				DropDomains:      append([]string(nil), valid.DropDomains...),
			}
			testCase.mutate(&cfg)

			rules, err := story.NewRuleSet(cfg)
			require.ErrorIs(t, err, testCase.wantErr)
			assert.Nil(t, rules)
		})
	}
}

func TestNewRuleSet_CustomRules(t *testing.T) {
	t.Parallel()

	rules, err := story.NewRuleSet(story.RuleConfig{
		DropLinePatterns: []string{`^\s*sponsored\b.*$`},
		DropPhrases:      []string{"Join the Club!"},
		DropDomains:      []string{"Example.ORG"},
	})
	require.NoError(t, err)

	input := "Sponsored content below\nPlease join the club today, friends.\nSee example.org for the rest\nThe kite climbed higher and higher."
	assert.Equal(t, "The kite climbed higher and higher.", story.Sanitize(input, rules))
	assert.Equal(t, []string{"Join the Club!"}, rules.Phrases())
}

func TestRuleConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := story.RuleConfig{DropDomains: []string{"example.org"}}.WithDefaults()

	assert.Equal(t, story.DefaultRuleConfig().DropLinePatterns, cfg.DropLinePatterns)
	assert.Equal(t, story.DefaultRuleConfig().DropPhrases, cfg.DropPhrases)
	assert.Equal(t, []string{"example.org"}, cfg.DropDomains)
}
