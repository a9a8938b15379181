package dss

import (
	"bytes"
	"crypto/x509"

	"golang.org/x/crypto/ocsp"
)

// Index answers provenance questions about a DSS: whether a certificate's
// issuer is stored in it and whether revocation data for a certificate is
// stored in it. Signatures on OCSP responses and CRLs are not verified; the
// index only records what the store contains.
type Index struct {
	certs []*x509.Certificate
	ocsp  []*ocsp.Response
	crls  []*x509.RevocationList
}

// NewIndex decodes the revocation material in d. Undecodable entries are
// ignored. A nil DSS yields an empty index.
func NewIndex(d *DSS) *Index {
	idx := &Index{}
	if d == nil {
		return idx
	}

	idx.certs = append(idx.certs, d.Certs...)
	for _, der := range d.OCSPs {
		if resp, err := ocsp.ParseResponse(der, nil); err == nil {
			idx.ocsp = append(idx.ocsp, resp)
		}
	}
	for _, der := range d.CRLs {
		if crl, err := x509.ParseRevocationList(der); err == nil {
			idx.crls = append(idx.crls, crl)
		}
	}
	return idx
}

// Issuer returns the stored certificate whose subject matches cert's issuer,
// or nil. Self-signed certificates are their own issuer.
func (idx *Index) Issuer(cert *x509.Certificate) *x509.Certificate {
	if cert == nil {
		return nil
	}
	if isSelfSigned(cert) {
		return cert
	}
	for _, candidate := range idx.certs {
		if bytes.Equal(candidate.RawSubject, cert.RawIssuer) {
			return candidate
		}
	}
	return nil
}

// HasIssuer reports whether cert's issuer is available from the store.
func (idx *Index) HasIssuer(cert *x509.Certificate) bool {
	return idx.Issuer(cert) != nil
}

// HasRevocationData reports whether an OCSP response for cert's serial
// number, or a CRL issued by cert's issuer, is stored.
func (idx *Index) HasRevocationData(cert *x509.Certificate) bool {
	if cert == nil {
		return false
	}
	for _, resp := range idx.ocsp {
		if resp.SerialNumber != nil && resp.SerialNumber.Cmp(cert.SerialNumber) == 0 {
			return true
		}
	}
	for _, crl := range idx.crls {
		if bytes.Equal(crl.RawIssuer, cert.RawIssuer) {
			return true
		}
	}
	return false
}

// OCSPCount returns the number of decodable OCSP responses.
func (idx *Index) OCSPCount() int { return len(idx.ocsp) }

// CRLCount returns the number of decodable CRLs.
func (idx *Index) CRLCount() int { return len(idx.crls) }

func isSelfSigned(cert *x509.Certificate) bool {
	return bytes.Equal(cert.RawSubject, cert.RawIssuer)
}
