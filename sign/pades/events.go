package pades

import (
	"crypto/x509"
	"time"

	"github.com/georgepadayatti/gopades/pdf/generic"
)

// Event is a validation event delivered to ReportGenerator.OnEvent. Events
// carry no scope identifier: the target is the innermost open scope.
type Event interface {
	isEvent()
}

// StartSignatureValidation opens a primary signature scope.
type StartSignatureValidation struct {
	// Dict is the signature dictionary.
	Dict *generic.DictionaryObject
	// CMS is the DER signature blob. When nil it is read from the
	// dictionary's /Contents entry.
	CMS  []byte
	Name string
	Date time.Time
}

// SignatureValidationSuccess closes the innermost scope successfully.
type SignatureValidationSuccess struct{}

// SignatureValidationFailure closes the innermost scope as failed.
type SignatureValidationFailure struct {
	Fatal  bool
	Name   string
	Reason string
}

// ProofOfExistenceFound opens a nested document timestamp scope.
type ProofOfExistenceFound struct {
	Dict *generic.DictionaryObject
	Name string
}

// DSSProcessed records that the document's DSS dictionary was read. It
// applies regardless of open scopes.
type DSSProcessed struct {
	Dict *generic.DictionaryObject
}

// CertificateIssuerExternalRetrieval records an issuer fetched from outside
// the document.
type CertificateIssuerExternalRetrieval struct {
	Cert *x509.Certificate
}

// CertificateIssuerRetrievedOutsideDSS records an issuer found in the
// document but not in the DSS.
type CertificateIssuerRetrievedOutsideDSS struct {
	Cert *x509.Certificate
}

// RevocationNotFromDSS records revocation data obtained outside the DSS.
type RevocationNotFromDSS struct {
	Cert *x509.Certificate
}

// DSSNotTimestamped records revocation data in a DSS revision that no
// document timestamp covers.
type DSSNotTimestamped struct {
	Cert *x509.Certificate
}

// AlgorithmUsage records a hash or signature algorithm used by the scope.
type AlgorithmUsage struct {
	Name    string
	OID     string
	Context string
}

func (StartSignatureValidation) isEvent()             {}
func (SignatureValidationSuccess) isEvent()           {}
func (SignatureValidationFailure) isEvent()           {}
func (ProofOfExistenceFound) isEvent()                {}
func (DSSProcessed) isEvent()                         {}
func (CertificateIssuerExternalRetrieval) isEvent()   {}
func (CertificateIssuerRetrievedOutsideDSS) isEvent() {}
func (RevocationNotFromDSS) isEvent()                 {}
func (DSSNotTimestamped) isEvent()                    {}
func (AlgorithmUsage) isEvent()                       {}

// describeCert returns the text used for a certificate in report messages.
func describeCert(cert *x509.Certificate) string {
	if cert == nil {
		return "<unknown certificate>"
	}
	if subject := cert.Subject.String(); subject != "" {
		return subject
	}
	return "serial " + cert.SerialNumber.String()
}
