package rams

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeOptions configures Normalize. Zero values mean time.Now and
// ListReplace.
type NormalizeOptions struct {
	Now    func() time.Time
	Policy ListPolicy
}

// Report lists the repairs applied while normalizing.
type Report struct {
	Repairs []string `json:"repairs"`
}

// Normalize turns raw completion text into a complete Document layered over
// base. On error the returned document is an untouched copy of base, so the
// caller always has something renderable.
func Normalize(raw string, base Document, opts NormalizeOptions) (Document, Report, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy == "" {
		opts.Policy = ListReplace
	}

	patch, err := ParsePatch(raw)
	if err != nil {
		return base.Clone(), Report{}, err
	}

	doc, repairs := Merge(base, patch, opts.Policy)
	rep := Report{Repairs: repairs}
	rep.Repairs = append(rep.Repairs, repairDates(&doc, opts.Now())...)
	doc.ensureCollections()
	for i := range doc.RiskAssessment {
		doc.RiskAssessment[i] = ScoreEntry(doc.RiskAssessment[i])
	}

	if strings.TrimSpace(doc.Project.Title) == "" {
		return base.Clone(), rep, ErrMissingTitle
	}
	return doc, rep, nil
}

// ParsePatch strips code fences from text and decodes it strictly as a JSON
// object.
func ParsePatch(text string) (Patch, error) {
	s := StripFences(text)
	if s == "" {
		return nil, ErrEmptyResponse
	}
	var p Patch
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: top-level value is null", ErrMalformedJSON)
	}
	return p, nil
}

// StripFences removes a leading ``` or ```json fence and a trailing ``` fence.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		if isFenceTag(strings.TrimSpace(s[:i])) {
			s = s[i+1:]
		}
	} else if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// repairDates replaces an invalid primary date with today and an invalid
// review date with the primary date plus one year. An empty review date is
// left alone.
func repairDates(d *Document, now time.Time) []string {
	var repairs []string
	p := &d.Project
	if !ValidDate(p.Date) {
		repairs = append(repairs, fmt.Sprintf("project.date: %q replaced with today", p.Date))
		p.Date = now.Format(DateLayout)
	}
	if p.ReviewDate != "" && !ValidDate(p.ReviewDate) {
		primary, _ := time.Parse(DateLayout, p.Date)
		repairs = append(repairs, fmt.Sprintf("project.review_date: %q replaced with date plus one year", p.ReviewDate))
		p.ReviewDate = primary.AddDate(1, 0, 0).Format(DateLayout)
	}
	return repairs
}
