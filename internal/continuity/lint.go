package continuity

import (
	"fmt"
	"regexp"
	"strings"

	"storyreel/internal/timeline"
)

// FlagKind classifies a lint finding.
type FlagKind string

const (
	FlagDrift  FlagKind = "drift"
	FlagFiller FlagKind = "filler"
	FlagLength FlagKind = "length"
)

// Flag is one lint finding on a segment's prompt.
type Flag struct {
	Kind      FlagKind `json:"kind"`
	SegmentID string   `json:"segmentId"`
	Character string   `json:"character,omitempty"`
	Trait     string   `json:"trait,omitempty"`
	Phrase    string   `json:"phrase,omitempty"`
	Detail    string   `json:"detail"`
}

// Config bounds the prompt length check.
type Config struct {
	MinWords int
	MaxWords int
}

// DefaultConfig returns the default 50-80 word band.
func DefaultConfig() Config {
	return Config{MinWords: 50, MaxWords: 80}
}

// fillerPhrases are meta-narrative phrasings that describe the film-making
// process instead of the scene itself.
var fillerPhrases = []string{
	"the camera",
	"a shot of",
	"the mood is",
	"emphasizing",
	"maintain continuity",
	"the scene",
	"we see",
}

// Lint runs the three independent checks over one segment's prompt. Checks
// are additive; none short-circuits another. Profiles are read-only.
func Lint(segment timeline.Segment, profiles []CharacterProfile, cfg Config) []Flag {
	var flags []Flag
	flags = append(flags, driftFlags(segment, profiles)...)
	flags = append(flags, fillerFlags(segment)...)
	flags = append(flags, lengthFlags(segment, cfg)...)
	return flags
}

// Report aggregates a batch lint pass. CleanRate is the fraction of segments
// with no flags; it is a quality metric, never a blocking gate.
type Report struct {
	TotalFlags      int      `json:"totalFlags"`
	FlaggedSegments []string `json:"flaggedSegments"`
	CleanRate       float64  `json:"cleanRate"`
	Flags           []Flag   `json:"flags,omitempty"`
}

// LintAll lints every segment and aggregates the result.
func LintAll(segments []timeline.Segment, profiles []CharacterProfile, cfg Config) Report {
	report := Report{CleanRate: 1}
	if len(segments) == 0 {
		return report
	}
	clean := 0
	for _, seg := range segments {
		flags := Lint(seg, profiles, cfg)
		if len(flags) == 0 {
			clean++
			continue
		}
		report.TotalFlags += len(flags)
		report.FlaggedSegments = append(report.FlaggedSegments, seg.ID)
		report.Flags = append(report.Flags, flags...)
	}
	report.CleanRate = float64(clean) / float64(len(segments))
	return report
}

func driftFlags(segment timeline.Segment, profiles []CharacterProfile) []Flag {
	var flags []Flag
	for _, profile := range profiles {
		if profile.ContinuityRef == "" {
			// First appearance: full description is legitimate.
			continue
		}
		if !segmentReferences(segment, profile) {
			continue
		}
		for _, trait := range profile.forbiddenTraits() {
			if containsWholeWord(segment.Prompt, trait) {
				flags = append(flags, Flag{
					Kind:      FlagDrift,
					SegmentID: segment.ID,
					Character: profile.Name,
					Trait:     trait,
					Detail:    fmt.Sprintf("prompt re-describes %q for %s after continuity was established", trait, profile.Name),
				})
			}
		}
	}
	return flags
}

func fillerFlags(segment timeline.Segment) []Flag {
	var flags []Flag
	lower := strings.ToLower(segment.Prompt)
	for _, phrase := range fillerPhrases {
		if strings.Contains(lower, phrase) {
			flags = append(flags, Flag{
				Kind:      FlagFiller,
				SegmentID: segment.ID,
				Phrase:    phrase,
				Detail:    fmt.Sprintf("prompt contains meta-narrative phrasing %q", phrase),
			})
		}
	}
	return flags
}

func lengthFlags(segment timeline.Segment, cfg Config) []Flag {
	words := len(strings.Fields(segment.Prompt))
	switch {
	case words < cfg.MinWords:
		return []Flag{{
			Kind:      FlagLength,
			SegmentID: segment.ID,
			Detail:    fmt.Sprintf("prompt too short: %d words, minimum %d", words, cfg.MinWords),
		}}
	case words > cfg.MaxWords:
		return []Flag{{
			Kind:      FlagLength,
			SegmentID: segment.ID,
			Detail:    fmt.Sprintf("prompt too long: %d words, maximum %d", words, cfg.MaxWords),
		}}
	}
	return nil
}

// segmentReferences reports whether the segment involves the character:
// either the prompt or source text names them, or the segment's continuity
// reference points at the character's established state.
func segmentReferences(segment timeline.Segment, profile CharacterProfile) bool {
	if profile.Name == "" {
		return false
	}
	if segment.ContinuityRef != "" && segment.ContinuityRef == profile.ContinuityRef {
		return true
	}
	return containsWholeWord(segment.Prompt, profile.Name) ||
		containsWholeWord(segment.SourceText, profile.Name)
}

func containsWholeWord(text, word string) bool {
	if text == "" || word == "" {
		return false
	}
	pattern := `(?i)\b` + regexp.QuoteMeta(word) + `\b`
	matched, err := regexp.MatchString(pattern, text)
	return err == nil && matched
}
