package eventlog

import (
	"bytes"
	"crypto/x509"

	"github.com/georgepadayatti/gopades/sign/dss"
	"github.com/georgepadayatti/gopades/sign/pades"
)

// CoverageEvents derives provenance events for certs from what the DSS
// holds: RevocationNotFromDSS when no OCSP response or CRL in the store
// covers a certificate, and CertificateIssuerRetrievedOutsideDSS when its
// issuer is not stored. Self-signed certificates need neither. A nil DSS
// covers nothing.
func CoverageEvents(d *dss.DSS, certs []*x509.Certificate) []pades.Event {
	idx := dss.NewIndex(d)
	var events []pades.Event
	for _, cert := range certs {
		if cert == nil || bytes.Equal(cert.RawSubject, cert.RawIssuer) {
			continue
		}
		if !idx.HasIssuer(cert) {
			events = append(events, pades.CertificateIssuerRetrievedOutsideDSS{Cert: cert})
		}
		if !idx.HasRevocationData(cert) {
			events = append(events, pades.RevocationNotFromDSS{Cert: cert})
		}
	}
	return events
}
