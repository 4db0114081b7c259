// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns raw OCR text from a certificate scan into a
// CandidateRecord. Extraction never fails: a field that cannot be found is
// set to types.AbsentMarker and the rest of the record is still filled in.
//
// Every pattern list is ordered and the first match wins, so callers that
// supply their own lists control precedence.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/credverify/pkg/types"
)

// DefaultCertPatterns returns the certificate number patterns in priority
// order: the structured university ID first, then a generic "Cert No:" label.
// Each pattern must have one capture group holding the number.
func DefaultCertPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(JH[\s\-_]*UNI[\s\-_]*\d{4}[\s\-_]*\d+)`),
		regexp.MustCompile(`(?i)\bCert(?:ificate)?\s*No\b\.?[:\-\s]*([A-Z0-9][A-Z0-9\-_]*)`),
	}
}

// DefaultCoursePatterns returns the course-shape patterns tried against the
// name block, in priority order: degree abbreviations, then phrases starting
// with Bachelor, Master, or Diploma.
func DefaultCoursePatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(B\.?B\.?A|M\.?B\.?A|B\.?C\.?A|M\.?C\.?A|B\.?\s?Tech|M\.?\s?Tech|B\.?\s?Com|M\.?\s?Com|M\.?Sc\s+[A-Za-z]+|B\.?Sc\s+[A-Za-z]+|BA\s+[A-Za-z]+|MA\s+[A-Za-z]+)\b`),
		regexp.MustCompile(`(?i)\b((?:Bachelor|Master|Diploma)\b.*)`),
	}
}

// DefaultAnchors returns the phrases that introduce the holder's name, in
// priority order.
func DefaultAnchors() []string {
	return []string{
		"this certificate is given to",
		"is given to",
		"awarded to",
	}
}

// DefaultTrailingPhrases returns boilerplate that starts after the name and
// is cut from the name block together with everything that follows it.
func DefaultTrailingPhrases() []string {
	return []string{
		"PRESENTED",
		"For completing",
		"For successfully",
		"On successful",
		"In the year",
	}
}

var (
	yearRE         = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	separatorRunRE = regexp.MustCompile(`[\s\-_]+`)
	nonAlphaRE     = regexp.MustCompile(`[^A-Za-z\s]`)
)

// Extractor holds the ordered pattern lists used to pull fields out of OCR
// text. It has no mutable state and is safe for concurrent use.
type Extractor struct {
	institutions   []string
	certPatterns   []*regexp.Regexp
	coursePatterns []*regexp.Regexp
	anchors        []*regexp.Regexp
	trailingRE     *regexp.Regexp
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCertPatterns replaces the certificate number patterns.
func WithCertPatterns(patterns ...*regexp.Regexp) Option {
	return func(e *Extractor) { e.certPatterns = patterns }
}

// WithCoursePatterns replaces the course-shape patterns.
func WithCoursePatterns(patterns ...*regexp.Regexp) Option {
	return func(e *Extractor) { e.coursePatterns = patterns }
}

// WithAnchors replaces the phrases that introduce the holder's name. They
// are tried in the given order.
func WithAnchors(anchors ...string) Option {
	return func(e *Extractor) { e.anchors = anchorPatterns(anchors) }
}

// WithTrailingPhrases replaces the boilerplate cut from the end of the name block.
func WithTrailingPhrases(phrases ...string) Option {
	return func(e *Extractor) { e.trailingRE = alternation(phrases, `.*$`) }
}

// New creates an Extractor that recognizes the given institution names, in
// order of precedence.
func New(institutions []string, opts ...Option) *Extractor {
	e := &Extractor{
		institutions:   append([]string(nil), institutions...),
		certPatterns:   DefaultCertPatterns(),
		coursePatterns: DefaultCoursePatterns(),
		anchors:        anchorPatterns(DefaultAnchors()),
		trailingRE:     alternation(DefaultTrailingPhrases(), `.*$`),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// alternation builds a case-insensitive regexp matching any of the literal
// phrases followed by suffix. Phrase order is kept.
func alternation(phrases []string, suffix string) *regexp.Regexp {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(p), ` `, `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)` + suffix)
}

// anchorPatterns compiles one pattern per anchor so that list order, not
// position in the text, decides which anchor is used.
func anchorPatterns(anchors []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(anchors))
	for _, a := range anchors {
		if strings.TrimSpace(a) == "" {
			continue
		}
		out = append(out, alternation([]string{a}, `[ \t:]*(.*)`))
	}
	return out
}

// Extract builds a CandidateRecord from raw OCR text.
func (e *Extractor) Extract(raw string) types.CandidateRecord {
	text := norm.NFKC.String(raw)

	rec := types.CandidateRecord{
		CertificateNo: types.AbsentMarker,
		Name:          types.AbsentMarker,
		Institution:   types.AbsentMarker,
		Course:        types.AbsentMarker,
		Year:          types.AbsentMarker,
		RawText:       raw,
	}

	certNo, certSpan := e.certificateNo(text)
	if certNo != "" {
		rec.CertificateNo = certNo
	}

	if inst := e.institution(text); inst != "" {
		rec.Institution = inst
	}

	name, course := e.nameAndCourse(text)
	if name != "" {
		rec.Name = name
	}
	if course != "" {
		rec.Course = course
	}

	// The certificate number often embeds a year-shaped group; cut it out
	// before looking for the calendar year.
	yearText := text
	if certSpan != nil {
		yearText = text[:certSpan[0]] + " " + text[certSpan[1]:]
	}
	if y := yearRE.FindString(yearText); y != "" {
		rec.Year = y
	}

	return rec
}

// certificateNo returns the normalized certificate number from the first
// matching pattern and the byte span of the matched number in text.
func (e *Extractor) certificateNo(text string) (string, []int) {
	for _, re := range e.certPatterns {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil || len(loc) < 4 || loc[2] < 0 {
			continue
		}
		value := NormalizeCertificateNo(text[loc[2]:loc[3]])
		if value == "" {
			continue
		}
		return value, []int{loc[2], loc[3]}
	}
	return "", nil
}

// NormalizeCertificateNo collapses runs of whitespace, hyphens, and
// underscores into single hyphens and upper-cases the result.
func NormalizeCertificateNo(s string) string {
	s = separatorRunRE.ReplaceAllString(s, "-")
	return strings.ToUpper(strings.Trim(s, "-"))
}

// institution returns the first configured name found in text, compared
// case-insensitively.
func (e *Extractor) institution(text string) string {
	lower := strings.ToLower(text)
	for _, name := range e.institutions {
		if name == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	return ""
}

// nameAndCourse locates the block after the name anchor, splits a course
// out of it when one is printed next to the name, and cleans the rest into
// a name.
func (e *Extractor) nameAndCourse(text string) (name, course string) {
	block := e.nameBlock(text)
	if block == "" {
		return "", ""
	}

	for _, re := range e.coursePatterns {
		m := re.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		matched := strings.TrimSpace(m[len(m)-1])
		if matched == "" {
			continue
		}
		block = strings.Replace(block, matched, " ", 1)
		course = collapse(e.trailingRE.ReplaceAllString(matched, ""))
		break
	}

	return e.cleanName(block), course
}

// nameBlock returns the text after the first anchor in list order that
// occurs in text, taken from the same line or from the next non-empty line
// when the anchor ends its line.
func (e *Extractor) nameBlock(text string) string {
	var loc []int
	for _, re := range e.anchors {
		if loc = re.FindStringSubmatchIndex(text); loc != nil {
			break
		}
	}
	if loc == nil {
		return ""
	}
	if rest := collapse(text[loc[2]:loc[3]]); rest != "" {
		return rest
	}
	for _, line := range strings.Split(text[loc[1]:], "\n") {
		if l := collapse(line); l != "" {
			return l
		}
	}
	return ""
}

// cleanName strips trailing boilerplate and every character that is not a
// letter or whitespace.
func (e *Extractor) cleanName(block string) string {
	block = e.trailingRE.ReplaceAllString(block, "")
	block = nonAlphaRE.ReplaceAllString(block, "")
	return collapse(block)
}

// collapse trims s and replaces internal whitespace runs with one space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
