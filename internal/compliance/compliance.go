// Package compliance scans a parsed bundle for content that should not
// be extracted without review. Rules produce advisory or blocking
// findings; a blocking finding stops extraction unless the caller
// overrides the gate.
package compliance

import (
	"fmt"
	"path"

	"github.com/openrip/openrip/internal/bundle"
	"github.com/openrip/openrip/internal/object"
)

// Severity classifies a finding. Advisory findings inform, blocking
// findings gate extraction.
type Severity int

const (
	SeverityAdvisory Severity = iota
	SeverityBlocking
)

func (s Severity) String() string {
	switch s {
	case SeverityAdvisory:
		return "advisory"
	case SeverityBlocking:
		return "blocking"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Rule names as they appear in findings and in profile disable lists.
const (
	RuleRestrictedMarker  = "restricted-marker"
	RuleDuplicateNames    = "duplicate-names"
	RuleSuspiciousHeader  = "suspicious-header"
	RuleUnresolvedObjects = "unresolved-objects"
)

// Finding is one rule hit. Object is the directory entry it attaches
// to, empty for bundle-wide findings.
type Finding struct {
	Rule     string
	Severity Severity
	Object   string
	Detail   string
}

// Report is the outcome of a scan.
type Report struct {
	Profile  string
	Findings []Finding
}

// Blocked reports whether any finding carries blocking severity.
func (r Report) Blocked() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityBlocking {
			return true
		}
	}
	return false
}

// Count returns the number of findings at the given severity.
func (r Report) Count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// RiskScore folds the findings into a 0-100 score. Blocking findings
// weigh 25 each, advisories 5.
func (r Report) RiskScore() int {
	score := r.Count(SeverityBlocking)*25 + r.Count(SeverityAdvisory)*5
	if score > 100 {
		score = 100
	}
	return score
}

// Input is everything the scanner looks at. The scanner runs over
// whatever resolved, so a bundle with per-object failures still gets a
// full report.
type Input struct {
	Notes    []bundle.Note
	Records  []object.Record
	Failures []object.Failure
}

// Scanner applies a profile's rules to a bundle.
type Scanner struct {
	profile Profile
}

func NewScanner(p Profile) *Scanner {
	return &Scanner{profile: p}
}

// Scan runs every enabled rule and collects the findings.
func (s *Scanner) Scan(in Input) Report {
	rep := Report{Profile: s.profile.Name}

	if s.profile.ruleEnabled(RuleRestrictedMarker) {
		rep.Findings = append(rep.Findings, s.restrictedMarkers(in.Records)...)
	}
	if s.profile.ruleEnabled(RuleDuplicateNames) {
		rep.Findings = append(rep.Findings, duplicateNames(in.Records)...)
	}
	if s.profile.ruleEnabled(RuleSuspiciousHeader) {
		rep.Findings = append(rep.Findings, suspiciousHeader(in.Notes)...)
	}
	if s.profile.ruleEnabled(RuleUnresolvedObjects) {
		rep.Findings = append(rep.Findings, unresolvedObjects(in.Failures)...)
	}

	return rep
}

// restrictedMarkers flags objects whose name matches a marker pattern.
// One marker taints the whole bundle, so the finding is blocking.
func (s *Scanner) restrictedMarkers(records []object.Record) []Finding {
	var out []Finding
	for _, rec := range records {
		for _, pattern := range s.profile.RestrictedMarkers {
			ok, err := path.Match(pattern, rec.Entry.Name)
			if err != nil || !ok {
				continue
			}
			out = append(out, Finding{
				Rule:     RuleRestrictedMarker,
				Severity: SeverityBlocking,
				Object:   rec.Entry.Name,
				Detail:   fmt.Sprintf("name matches restricted marker %q", pattern),
			})
			break
		}
	}
	return out
}

// duplicateNames emits one advisory per name that appears more than
// once, attached to the first occurrence.
func duplicateNames(records []object.Record) []Finding {
	seen := make(map[string]int, len(records))
	for _, rec := range records {
		seen[rec.Entry.Name]++
	}

	var out []Finding
	reported := make(map[string]bool)
	for _, rec := range records {
		n := seen[rec.Entry.Name]
		if n < 2 || reported[rec.Entry.Name] {
			continue
		}
		reported[rec.Entry.Name] = true
		out = append(out, Finding{
			Rule:     RuleDuplicateNames,
			Severity: SeverityAdvisory,
			Object:   rec.Entry.Name,
			Detail:   fmt.Sprintf("name appears %d times in the directory", n),
		})
	}
	return out
}

// suspiciousHeader surfaces the oddities the reader recorded while
// parsing.
func suspiciousHeader(notes []bundle.Note) []Finding {
	var out []Finding
	for _, n := range notes {
		out = append(out, Finding{
			Rule:     RuleSuspiciousHeader,
			Severity: SeverityAdvisory,
			Detail:   fmt.Sprintf("%s: %s", n.Code, n.Detail),
		})
	}
	return out
}

// unresolvedObjects reports entries the resolver had to skip.
func unresolvedObjects(failures []object.Failure) []Finding {
	var out []Finding
	for _, f := range failures {
		out = append(out, Finding{
			Rule:     RuleUnresolvedObjects,
			Severity: SeverityAdvisory,
			Object:   f.Entry.Name,
			Detail:   f.Err.Error(),
		})
	}
	return out
}
