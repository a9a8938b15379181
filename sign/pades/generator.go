package pades

import (
	"fmt"
	"log/slog"

	"github.com/georgepadayatti/gopades/sign/dss"
)

// ReportGenerator consumes validation events and builds a DocumentReport.
// It is a single threaded reducer: events must be delivered one at a time
// in emission order. Scopes still open when the stream ends produce no
// report.
type ReportGenerator struct {
	logger     *slog.Logger
	classifier AlgorithmClassifier
	sigRules   RequirementTable
	tsRules    RequirementTable

	stack   []*validationScope
	pending pendingEvidence
	report  *DocumentReport
}

// Option configures a ReportGenerator.
type Option func(*ReportGenerator)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(g *ReportGenerator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithClassifier sets the algorithm classifier. The default is
// DefaultAlgorithmPolicy.
func WithClassifier(c AlgorithmClassifier) Option {
	return func(g *ReportGenerator) {
		if c != nil {
			g.classifier = c
		}
	}
}

// WithRequirements replaces the signature and timestamp requirement tables.
// A nil table keeps the default.
func WithRequirements(signature, timestamp RequirementTable) Option {
	return func(g *ReportGenerator) {
		if signature != nil {
			g.sigRules = signature
		}
		if timestamp != nil {
			g.tsRules = timestamp
		}
	}
}

// NewReportGenerator creates a generator with an empty report.
func NewReportGenerator(opts ...Option) *ReportGenerator {
	g := &ReportGenerator{
		logger:     slog.New(slog.DiscardHandler),
		classifier: DefaultAlgorithmPolicy(),
		sigRules:   SignatureRequirements(),
		tsRules:    TimestampRequirements(),
		report:     newDocumentReport(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Report returns the document report built so far.
func (g *ReportGenerator) Report() *DocumentReport {
	return g.report
}

// Depth returns the number of open scopes.
func (g *ReportGenerator) Depth() int {
	return len(g.stack)
}

// OnEvent processes a single event.
func (g *ReportGenerator) OnEvent(event Event) {
	switch e := event.(type) {
	case StartSignatureValidation:
		g.openSignature(e)
	case ProofOfExistenceFound:
		g.openTimestamp(e)
	case SignatureValidationSuccess:
		g.close(false, e)
	case SignatureValidationFailure:
		g.close(true, e)
	case DSSProcessed:
		g.processDSS(e)
	case CertificateIssuerExternalRetrieval, CertificateIssuerRetrievedOutsideDSS,
		RevocationNotFromDSS, DSSNotTimestamped, AlgorithmUsage:
		top := g.top()
		if top == nil {
			g.misfire(event)
			return
		}
		top.record(event)
	case nil:
		g.logger.Debug("ignoring nil event")
	default:
		g.logger.Warn("ignoring unknown event", "type", fmt.Sprintf("%T", event))
	}
}

func (g *ReportGenerator) openSignature(e StartSignatureValidation) {
	scope := newScope(ScopeSignature, e.Name, CaptureFacts(e.Dict, e.CMS))
	for _, req := range g.sigRules.Evaluate(scope.facts) {
		scope.findings.addNonConformity(req.Level, req.Message)
	}
	for _, outcome := range g.pending.take() {
		scope.merge(outcome)
	}
	g.stack = append(g.stack, scope)
	g.logger.Debug("opened signature scope", "name", e.Name, "depth", len(g.stack), "facts", scope.facts,
		"violations", len(scope.findings.nonConformities[LevelBB]), "merged_timestamps", len(scope.timestampFindings))
}

func (g *ReportGenerator) openTimestamp(e ProofOfExistenceFound) {
	scope := newScope(ScopeTimestamp, e.Name, CaptureFacts(e.Dict, nil))
	for _, req := range g.tsRules.Evaluate(scope.facts) {
		scope.findings.addNonConformity(LevelBLTA, req.Message)
	}
	g.stack = append(g.stack, scope)
	g.logger.Debug("opened timestamp scope", "name", e.Name, "depth", len(g.stack), "facts", scope.facts)
}

func (g *ReportGenerator) close(failed bool, event Event) {
	scope := g.pop()
	if scope == nil {
		g.misfire(event)
		return
	}
	scope.failed = failed
	if f, ok := event.(SignatureValidationFailure); ok {
		g.logger.Debug("scope failed", "name", scope.name, "kind", scope.kind, "fatal", f.Fatal, "reason", f.Reason)
	}

	switch scope.kind {
	case ScopeTimestamp:
		// Always queued, even when a signature scope is open beneath it: the
		// next primary signature to open takes the evidence.
		outcome := scope.outcome(g.classifier)
		g.pending.outcomes = append(g.pending.outcomes, outcome)
		g.logger.Debug("timestamp queued", "timestamp", scope.name, "success", outcome.success,
			"queued", len(g.pending.outcomes))
	case ScopeSignature:
		level := LevelIndeterminate
		if !failed {
			level = g.computeLevel(scope)
		}
		g.report.put(newSignatureReport(scope.name, level, scope.findings))
		g.logger.Info("signature level determined", "name", scope.name, "level", level)
	}
}

func (g *ReportGenerator) processDSS(e DSSProcessed) {
	g.pending.dssProcessed = true
	if e.Dict == nil {
		return
	}
	parsed, err := dss.ParseDSS(e.Dict)
	if err != nil {
		g.logger.Warn("could not parse DSS dictionary", "error", err)
		return
	}
	g.pending.dss = parsed
	g.report.dssSummary = parsed.Summary()
	g.logger.Debug("DSS processed", "summary", g.report.dssSummary)
}

// computeLevel walks the ladder for a closed, successful primary scope and
// files every violation it finds.
func (g *ReportGenerator) computeLevel(s *validationScope) Level {
	var level Level
	if len(s.findings.nonConformities[LevelBB]) > 0 {
		level = LevelNone
	} else {
		level = g.ladder(s)
	}
	if g.applyAlgorithmPolicy(s) {
		level = LevelNone
	}
	return level
}

func (g *ReportGenerator) ladder(s *validationScope) Level {
	f := s.findings

	if !s.hasProofOfExistence && !s.facts.HasSignatureTimestamp() {
		f.addNonConformity(LevelBT, MsgTimestampMustBeAvailable)
		return LevelBB
	}

	capped := false
	if !g.pending.dssProcessed {
		f.addNonConformity(LevelBLT, MsgDSSDictionaryIsMissing)
		capped = true
	} else if g.pending.dss != nil {
		g.logDSSCoverage(s)
	}
	if len(s.issuerExternal) > 0 {
		f.addNonConformity(LevelBLT, withSubjects(MsgIssuerIsMissing, s.issuerExternal))
		capped = true
	}
	if len(s.revocationNotFromDSS) > 0 {
		f.addNonConformity(LevelBLT, withSubjects(MsgRevocationDataIsMissing, s.revocationNotFromDSS))
		capped = true
	}
	if len(s.issuerOutsideDSS) > 0 {
		f.addWarning(LevelBLT, withSubjects(MsgIssuerIsNotInDSS, s.issuerOutsideDSS))
	}
	if capped {
		return LevelBT
	}

	if !s.archiveTimestamped {
		f.addNonConformity(LevelBLTA, MsgDocumentTimestampMustCoverDSS)
		capped = true
	}
	if len(s.dssNotTimestamped) > 0 {
		f.addNonConformity(LevelBLTA, withSubjects(MsgRevocationDataNotTimestamped, s.dssNotTimestamped))
		capped = true
	}
	for _, outcome := range s.timestampFindings {
		for _, msg := range outcome.nonConformities {
			f.addNonConformity(LevelBLTA, msg)
			capped = true
		}
		for _, msg := range outcome.warnings {
			f.addWarning(LevelBLTA, msg)
		}
	}
	if capped {
		return LevelBLT
	}
	return LevelBLTA
}

// logDSSCoverage reports what the parsed DSS holds for the signer. The
// ladder itself is driven by provenance events only.
func (g *ReportGenerator) logDSSCoverage(s *validationScope) {
	idx := dss.NewIndex(g.pending.dss)
	attrs := []any{"name", s.name, "ocsp", idx.OCSPCount(), "crls", idx.CRLCount()}
	if s.facts.CMS != nil && s.facts.CMS.SignerCertificate != nil {
		signer := s.facts.CMS.SignerCertificate
		attrs = append(attrs, "signer_issuer_in_dss", idx.HasIssuer(signer),
			"signer_revocation_in_dss", idx.HasRevocationData(signer))
	}
	g.logger.Debug("DSS coverage", attrs...)
}

// applyAlgorithmPolicy files algorithm findings and reports whether a
// forbidden algorithm was used.
func (g *ReportGenerator) applyAlgorithmPolicy(s *validationScope) bool {
	forbidden := false
	for _, usage := range s.algorithms {
		severity := g.classifier.Classify(usage.Name, usage.OID)
		switch severity {
		case AlgorithmForbidden:
			s.findings.addNonConformity(LevelBB, withSubject(MsgForbiddenAlgorithmUsed, usage.OID))
			forbidden = true
		case AlgorithmDiscouraged:
			s.findings.addWarning(LevelBB, withSubject(MsgDiscouragedAlgorithmUsed, usage.Name))
		}
		if severity != AlgorithmAccepted {
			g.logger.Debug("algorithm classified", "name", usage.Name, "oid", usage.OID,
				"context", usage.Context, "severity", severity)
		}
	}
	return forbidden
}

func (g *ReportGenerator) top() *validationScope {
	if len(g.stack) == 0 {
		return nil
	}
	return g.stack[len(g.stack)-1]
}

func (g *ReportGenerator) pop() *validationScope {
	top := g.top()
	if top != nil {
		g.stack = g.stack[:len(g.stack)-1]
	}
	return top
}

func (g *ReportGenerator) misfire(event Event) {
	g.logger.Debug("ignoring event with no open scope", "event", eventName(event))
}

func eventName(event Event) string {
	switch event.(type) {
	case SignatureValidationSuccess:
		return "success"
	case SignatureValidationFailure:
		return "failure"
	case CertificateIssuerExternalRetrieval:
		return "issuer-external"
	case CertificateIssuerRetrievedOutsideDSS:
		return "issuer-outside-dss"
	case RevocationNotFromDSS:
		return "revocation-not-from-dss"
	case DSSNotTimestamped:
		return "dss-not-timestamped"
	case AlgorithmUsage:
		return "algorithm"
	default:
		return "unknown"
	}
}
