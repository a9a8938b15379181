package pades

import (
	"fmt"
	"slices"
	"strings"

	"github.com/georgepadayatti/gopades/sign/dss"
)

// ScopeKind distinguishes primary signature scopes from nested document
// timestamp scopes.
type ScopeKind int

const (
	ScopeSignature ScopeKind = iota
	ScopeTimestamp
)

// String returns the string representation of the scope kind.
func (k ScopeKind) String() string {
	if k == ScopeTimestamp {
		return "timestamp"
	}
	return "signature"
}

// findings holds messages per level, in insertion order, without duplicates.
type findings struct {
	nonConformities map[Level][]string
	warnings        map[Level][]string
}

func newFindings() *findings {
	return &findings{
		nonConformities: make(map[Level][]string),
		warnings:        make(map[Level][]string),
	}
}

func (f *findings) addNonConformity(level Level, msg string) {
	if !slices.Contains(f.nonConformities[level], msg) {
		f.nonConformities[level] = append(f.nonConformities[level], msg)
	}
}

func (f *findings) addWarning(level Level, msg string) {
	if !slices.Contains(f.warnings[level], msg) {
		f.warnings[level] = append(f.warnings[level], msg)
	}
}

// timestampOutcome is what a closed timestamp scope contributes to the
// signature it is attributed to.
type timestampOutcome struct {
	name            string
	success         bool
	nonConformities []string
	warnings        []string
}

// pendingEvidence is document-level evidence not yet attributed to a
// primary signature. It lives as long as the generator.
type pendingEvidence struct {
	dssProcessed bool
	dss          *dss.DSS
	outcomes     []timestampOutcome
}

// take hands the queued outcomes to the caller and leaves the queue empty.
func (p *pendingEvidence) take() []timestampOutcome {
	outcomes := p.outcomes
	p.outcomes = nil
	return outcomes
}

// validationScope is an open evaluation unit on the generator's stack.
type validationScope struct {
	name  string
	kind  ScopeKind
	facts *SignatureFacts

	issuerExternal       []string
	issuerOutsideDSS     []string
	revocationNotFromDSS []string
	dssNotTimestamped    []string
	algorithms           []AlgorithmUsage

	hasProofOfExistence bool
	archiveTimestamped  bool
	timestampFindings   []timestampOutcome

	failed   bool
	findings *findings
}

func newScope(kind ScopeKind, name string, facts *SignatureFacts) *validationScope {
	return &validationScope{
		name:     name,
		kind:     kind,
		facts:    facts,
		findings: newFindings(),
	}
}

// merge attributes a closed timestamp to this scope.
func (s *validationScope) merge(outcome timestampOutcome) {
	if outcome.success {
		s.hasProofOfExistence = true
		s.archiveTimestamped = true
	}
	s.timestampFindings = append(s.timestampFindings, outcome)
}

// record appends a provenance event to the matching accumulator.
func (s *validationScope) record(event Event) {
	switch e := event.(type) {
	case CertificateIssuerExternalRetrieval:
		s.issuerExternal = append(s.issuerExternal, describeCert(e.Cert))
	case CertificateIssuerRetrievedOutsideDSS:
		s.issuerOutsideDSS = append(s.issuerOutsideDSS, describeCert(e.Cert))
	case RevocationNotFromDSS:
		s.revocationNotFromDSS = append(s.revocationNotFromDSS, describeCert(e.Cert))
	case DSSNotTimestamped:
		s.dssNotTimestamped = append(s.dssNotTimestamped, describeCert(e.Cert))
	case AlgorithmUsage:
		s.algorithms = append(s.algorithms, e)
	}
}

// outcome folds a closed timestamp scope into the value attributed to a
// signature.
func (s *validationScope) outcome(classifier AlgorithmClassifier) timestampOutcome {
	out := timestampOutcome{name: s.name, success: !s.failed}
	out.nonConformities = append(out.nonConformities, s.findings.nonConformities[LevelBLTA]...)
	if s.failed {
		out.warnings = append(out.warnings, withSubject(MsgDocumentTimestampValidationFailed, s.name))
	}
	if len(s.issuerExternal) > 0 {
		out.nonConformities = append(out.nonConformities, withSubjects(MsgIssuerIsMissing, s.issuerExternal))
	}
	if len(s.revocationNotFromDSS) > 0 {
		out.nonConformities = append(out.nonConformities, withSubjects(MsgRevocationDataIsMissing, s.revocationNotFromDSS))
	}
	if len(s.dssNotTimestamped) > 0 {
		out.nonConformities = append(out.nonConformities, withSubjects(MsgRevocationDataNotTimestamped, s.dssNotTimestamped))
	}
	if len(s.issuerOutsideDSS) > 0 {
		out.warnings = append(out.warnings, withSubjects(MsgIssuerIsNotInDSS, s.issuerOutsideDSS))
	}
	for _, usage := range s.algorithms {
		switch classifier.Classify(usage.Name, usage.OID) {
		case AlgorithmForbidden:
			out.nonConformities = append(out.nonConformities, withSubject(MsgForbiddenAlgorithmUsed, usage.OID))
		case AlgorithmDiscouraged:
			out.warnings = append(out.warnings, withSubject(MsgDiscouragedAlgorithmUsed, usage.Name))
		}
	}
	return out
}

func withSubject(msg, subject string) string {
	return fmt.Sprintf("%s: %s", msg, subject)
}

func withSubjects(msg string, subjects []string) string {
	return withSubject(msg, strings.Join(slices.Compact(slices.Sorted(slices.Values(subjects))), "; "))
}
