// Package story isolates the narrative core of noisy extracted book text.
//
// The pipeline is three line- and paragraph-level stages: Sanitize removes
// boilerplate lines and artifacts, Classify marks each paragraph as story or
// not, and Assemble trims front and back matter from the story paragraphs.
// Every stage is a pure function of its input and an immutable RuleSet, so a
// RuleSet may be shared by concurrent callers.
package story

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoLinePatterns indicates that the rule configuration has no line patterns.
	ErrNoLinePatterns = errors.New("drop line patterns cannot be empty")
	// ErrNoPhrases indicates that the rule configuration has no drop phrases.
	ErrNoPhrases = errors.New("drop phrases cannot be empty")
	// ErrNoDomains indicates that the rule configuration has no drop domains.
	ErrNoDomains = errors.New("drop domains cannot be empty")
	// ErrInvalidPattern indicates that a line pattern failed to compile.
	ErrInvalidPattern = errors.New("invalid drop line pattern")
)

// fixedBannedTerms reject a paragraph wherever they appear in it.
var fixedBannedTerms = []string{
	"illustrated by",
	"published by",
	"copyright",
	"all rights reserved",
	"isbn",
	"donation",
	"patreon",
	"share our books",
	"thank you for downloading",
}

// RuleConfig is the plain, serializable form of the cleaning rules.
type RuleConfig struct {
	// DropLinePatterns are case-insensitive regular expressions searched
	// in each trimmed line. Patterns anchor themselves where needed.
	DropLinePatterns []string `toml:"drop_line_patterns" json:"drop_line_patterns"`
	// DropPhrases are matched as substrings of a lower-cased line with
	// punctuation removed.
	DropPhrases []string `toml:"drop_phrases" json:"drop_phrases"`
	// DropDomains are bare domain substrings such as "patreon.com".
	DropDomains []string `toml:"drop_domains" json:"drop_domains"`
}

// DefaultRuleConfig returns the built-in cleaning rules.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		DropLinePatterns: []string{
			`^\s*(illustrated|written|edited|translated|adapted)\s+by[:\-].*$`,
			`^\s*published\s+by.*$`,
			`^\s*copyright.*$`,
			`^\s*all\s+rights\s+reserved.*$`,
			`^\s*isbn.*$`,
			`^\s*thank\s+you\s+for\s+.*$`,
			`^\s*please\s+(share|make\s+a\s+donation|support).*$`,
			`^\s*about\s+the\s+(author|book|illustrator|editor).*$`,
			`^\s*dedication[:]?.*$`,
			`^\s*acknowledg(e)?ments.*$`,
			`^\s*contents$`,
			`^\s*table\s+of\s+contents$`,
			`^\s*for\s+more\s+information.*$`,
			`^\s*visit\s+our\s+website.*$`,
			`^\s*www\..*\.\w{2,}$`,
			`^\s*https?://.*$`,
		},
		DropPhrases: []string{
			"all rights reserved",
			"support our mission",
			"share this book",
			"make a donation",
			"visit our website",
			"download more books",
			"for more information",
			"free ebook",
			"not for resale",
			"no part of this publication",
			"reproduction in any form",
			"without written permission",
		},
		DropDomains: []string{
			"patreon.com",
			"facebook.com",
			"instagram.com",
			"twitter.com",
			"youtube.com",
			"linkedin.com",
		},
	}
}

// RuleSet is a compiled, immutable RuleConfig.
type RuleSet struct {
	dropLine    *regexp.Regexp
	phrases     []string
	normPhrases []string
	domains     []string
	banned      *regexp.Regexp
}

// NewRuleSet validates cfg and compiles it. All three collections must be
// non-empty and every line pattern must compile.
func NewRuleSet(cfg RuleConfig) (*RuleSet, error) {
	if len(cfg.DropLinePatterns) == 0 {
		return nil, ErrNoLinePatterns
	}

	if len(cfg.DropPhrases) == 0 {
		return nil, ErrNoPhrases
	}

	if len(cfg.DropDomains) == 0 {
		return nil, ErrNoDomains
	}

	branches := make([]string, 0, len(cfg.DropLinePatterns))

	for _, pattern := range cfg.DropLinePatterns {
		_, compileErr := regexp.Compile(pattern)
		if compileErr != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, compileErr)
		}

		branches = append(branches, "(?:"+pattern+")")
	}

	dropLine, err := regexp.Compile("(?i)" + strings.Join(branches, "|"))
	if err != nil {
		return nil, fmt.Errorf("failed to combine drop line patterns: %w", err)
	}

	rules := &RuleSet{
		dropLine: dropLine,
		phrases:  append([]string(nil), cfg.DropPhrases...),
	}

	for _, phrase := range cfg.DropPhrases {
		normalized := normalizePhrase(phrase)
		if normalized != "" {
			rules.normPhrases = append(rules.normPhrases, normalized)
		}
	}

	for _, domain := range cfg.DropDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			rules.domains = append(rules.domains, domain)
		}
	}

	terms := make([]string, 0, len(fixedBannedTerms)+len(cfg.DropPhrases))
	for _, term := range append(append([]string(nil), fixedBannedTerms...), cfg.DropPhrases...) {
		if term != "" {
			terms = append(terms, regexp.QuoteMeta(term))
		}
	}

	rules.banned = regexp.MustCompile("(?i)" + strings.Join(terms, "|"))

	return rules, nil
}

// DefaultRuleSet compiles DefaultRuleConfig.
func DefaultRuleSet() *RuleSet {
	rules, err := NewRuleSet(DefaultRuleConfig())
	if err != nil {
		panic(fmt.Sprintf("built-in cleaning rules are invalid: %v", err))
	}

	return rules
}

// Phrases returns a copy of the configured drop phrases.
func (r *RuleSet) Phrases() []string {
	return append([]string(nil), r.phrases...)
}

// containsBannedTerm reports whether text mentions a fixed banned term or a
// drop phrase, case-insensitively.
func (r *RuleSet) containsBannedTerm(text string) bool {
	return r.banned.MatchString(text)
}

// WithDefaults returns cfg with every empty collection replaced by the
// built-in one.
func (cfg RuleConfig) WithDefaults() RuleConfig {
	defaults := DefaultRuleConfig()

	if len(cfg.DropLinePatterns) == 0 {
		cfg.DropLinePatterns = defaults.DropLinePatterns
	}

	if len(cfg.DropPhrases) == 0 {
		cfg.DropPhrases = defaults.DropPhrases
	}

	if len(cfg.DropDomains) == 0 {
		cfg.DropDomains = defaults.DropDomains
	}

	return cfg
}
