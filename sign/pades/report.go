package pades

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SignatureReport is the conformance result for one primary signature. A
// message is filed under the lowest level whose requirement it violates.
type SignatureReport struct {
	name            string
	level           Level
	nonConformities map[Level][]string
	warnings        map[Level][]string
}

func newSignatureReport(name string, level Level, f *findings) *SignatureReport {
	return &SignatureReport{
		name:            name,
		level:           level,
		nonConformities: copyBuckets(f.nonConformities),
		warnings:        copyBuckets(f.warnings),
	}
}

// Name returns the signature name.
func (r *SignatureReport) Name() string { return r.name }

// Level returns the achieved level.
func (r *SignatureReport) Level() Level { return r.level }

// NonConformities returns a copy of the non-conformities by level.
func (r *SignatureReport) NonConformities() map[Level][]string {
	return copyBuckets(r.nonConformities)
}

// Warnings returns a copy of the warnings by level.
func (r *SignatureReport) Warnings() map[Level][]string {
	return copyBuckets(r.warnings)
}

// NonConformitiesAt returns the non-conformities filed under level.
func (r *SignatureReport) NonConformitiesAt(level Level) []string {
	return append([]string(nil), r.nonConformities[level]...)
}

// WarningsAt returns the warnings filed under level.
func (r *SignatureReport) WarningsAt(level Level) []string {
	return append([]string(nil), r.warnings[level]...)
}

// HasNonConformity reports whether a message starting with msg is filed
// under level.
func (r *SignatureReport) HasNonConformity(level Level, msg string) bool {
	return hasPrefixed(r.nonConformities[level], msg)
}

// HasWarning reports whether a message starting with msg is filed under level.
func (r *SignatureReport) HasWarning(level Level, msg string) bool {
	return hasPrefixed(r.warnings[level], msg)
}

type signatureReportJSON struct {
	Name            string             `json:"name"`
	Level           Level              `json:"level"`
	NonConformities map[Level][]string `json:"non_conformities,omitempty"`
	Warnings        map[Level][]string `json:"warnings,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r *SignatureReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(signatureReportJSON{
		Name:            r.name,
		Level:           r.level,
		NonConformities: r.nonConformities,
		Warnings:        r.warnings,
	})
}

// DocumentReport collects the reports of all primary signatures of a
// document, in the order they were closed.
type DocumentReport struct {
	id         uuid.UUID
	created    time.Time
	names      []string
	signatures map[string]*SignatureReport
	dssSummary string
}

func newDocumentReport() *DocumentReport {
	return &DocumentReport{
		id:         uuid.New(),
		created:    time.Now().UTC(),
		signatures: make(map[string]*SignatureReport),
	}
}

// ID returns the report identifier.
func (d *DocumentReport) ID() uuid.UUID { return d.id }

// Created returns when the report was started.
func (d *DocumentReport) Created() time.Time { return d.created }

// DocumentLevel returns INDETERMINATE if any signature is indeterminate,
// NONE if any signature is NONE or there are no signatures, and otherwise
// the weakest ladder level across signatures.
func (d *DocumentReport) DocumentLevel() Level {
	if len(d.names) == 0 {
		return LevelNone
	}
	level := LevelBLTA
	none := false
	for _, name := range d.names {
		switch sig := d.signatures[name].level; sig {
		case LevelIndeterminate:
			return LevelIndeterminate
		case LevelNone:
			none = true
		default:
			level = MinLevel(level, sig)
		}
	}
	if none {
		return LevelNone
	}
	return level
}

// SignatureReport returns the report for the named signature.
func (d *DocumentReport) SignatureReport(name string) (*SignatureReport, bool) {
	r, ok := d.signatures[name]
	return r, ok
}

// SignatureNames returns signature names in report order.
func (d *DocumentReport) SignatureNames() []string {
	return append([]string(nil), d.names...)
}

// SignatureReports returns the signature reports in report order.
func (d *DocumentReport) SignatureReports() []*SignatureReport {
	reports := make([]*SignatureReport, len(d.names))
	for i, name := range d.names {
		reports[i] = d.signatures[name]
	}
	return reports
}

// Len returns the number of signature reports.
func (d *DocumentReport) Len() int { return len(d.names) }

// DSSSummary describes the processed DSS, or is empty when none was seen.
func (d *DocumentReport) DSSSummary() string { return d.dssSummary }

// put stores r, replacing an earlier report of the same name in place.
func (d *DocumentReport) put(r *SignatureReport) {
	if _, exists := d.signatures[r.name]; !exists {
		d.names = append(d.names, r.name)
	}
	d.signatures[r.name] = r
}

// String summarises the report.
func (d *DocumentReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "document %s: %s", d.id, d.DocumentLevel())
	for _, r := range d.SignatureReports() {
		fmt.Fprintf(&b, "\n  %s: %s", r.name, r.level)
	}
	return b.String()
}

type documentReportJSON struct {
	ID            string             `json:"id"`
	Created       time.Time          `json:"created"`
	DocumentLevel Level              `json:"document_level"`
	DSS           string             `json:"dss,omitempty"`
	Signatures    []*SignatureReport `json:"signatures"`
}

// MarshalJSON implements json.Marshaler.
func (d *DocumentReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(documentReportJSON{
		ID:            d.id.String(),
		Created:       d.created,
		DocumentLevel: d.DocumentLevel(),
		DSS:           d.dssSummary,
		Signatures:    d.SignatureReports(),
	})
}

func copyBuckets(src map[Level][]string) map[Level][]string {
	dst := make(map[Level][]string, len(src))
	for level, msgs := range src {
		if len(msgs) > 0 {
			dst[level] = append([]string(nil), msgs...)
		}
	}
	return dst
}

func hasPrefixed(msgs []string, prefix string) bool {
	for _, msg := range msgs {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
