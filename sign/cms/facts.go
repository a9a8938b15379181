package cms

import (
	"bytes"
	"crypto/x509"
	"encoding/asn1"
	"fmt"
	"time"
)

// Facts are the properties of a CMS signature that PAdES requirements are
// stated in terms of. They are read once and never re-derived.
type Facts struct {
	// Certificates is the decoded signed-data certificate set.
	Certificates []*x509.Certificate
	// SignerCertificate is the certificate matching the signer's issuer and serial, if present.
	SignerCertificate *x509.Certificate

	ContentType           asn1.ObjectIdentifier
	HasContentType        bool
	HasMessageDigest      bool
	HasSigningTime        bool
	HasCommitmentType     bool
	HasSigningCertificate bool

	// HasSignatureTimestamp reports an unsigned signature-time-stamp attribute.
	HasSignatureTimestamp bool
	// SignatureTimestampTime is the token's generation time when it could be decoded.
	SignatureTimestampTime *time.Time

	DigestAlgorithm    asn1.ObjectIdentifier
	SignatureAlgorithm asn1.ObjectIdentifier
}

// ExtractFacts decodes a CMS blob and collects its Facts. Only the first
// signer info is considered, as PDF signatures carry exactly one.
func ExtractFacts(data []byte) (*Facts, error) {
	signedData, err := ParseSignedData(trimPadding(data))
	if err != nil {
		return nil, err
	}
	if len(signedData.SignerInfos) == 0 {
		return nil, ErrNoSignerInfo
	}
	signer := signedData.SignerInfos[0]

	facts := &Facts{
		DigestAlgorithm:    signer.DigestAlgorithm.Algorithm,
		SignatureAlgorithm: signer.SignatureAlgorithm.Algorithm,
	}

	for _, raw := range signedData.Certificates {
		cert, err := x509.ParseCertificate(raw.FullBytes)
		if err != nil {
			continue
		}
		facts.Certificates = append(facts.Certificates, cert)
		if facts.SignerCertificate == nil && matchesSID(cert, signer.SID) {
			facts.SignerCertificate = cert
		}
	}

	if attr := FindAttribute(signer.SignedAttrs, OIDContentType); attr != nil {
		facts.HasContentType = true
		if len(attr.Values) > 0 {
			var oid asn1.ObjectIdentifier
			if _, err := asn1.Unmarshal(attr.Values[0].FullBytes, &oid); err == nil {
				facts.ContentType = oid
			}
		}
	}
	facts.HasMessageDigest = FindAttribute(signer.SignedAttrs, OIDMessageDigest) != nil
	facts.HasSigningTime = FindAttribute(signer.SignedAttrs, OIDSigningTime) != nil
	facts.HasCommitmentType = FindAttribute(signer.SignedAttrs, OIDCommitmentTypeIndication) != nil
	facts.HasSigningCertificate = FindAttribute(signer.SignedAttrs, OIDSigningCertificateV2) != nil ||
		FindAttribute(signer.SignedAttrs, OIDSigningCertificate) != nil

	if attr := FindAttribute(signer.UnsignedAttrs, OIDSignatureTimeStampToken); attr != nil {
		facts.HasSignatureTimestamp = true
		if len(attr.Values) > 0 {
			if tst, err := ParseTimestampToken(attr.Values[0].FullBytes); err == nil {
				genTime := tst.GenTime
				facts.SignatureTimestampTime = &genTime
			}
		}
	}

	return facts, nil
}

// ContentTypeIsData reports whether the content-type attribute is id-data.
func (f *Facts) ContentTypeIsData() bool {
	return f.HasContentType && f.ContentType.Equal(OIDData)
}

// String summarises the facts for logging.
func (f *Facts) String() string {
	signer := "none"
	if f.SignerCertificate != nil {
		signer = f.SignerCertificate.Subject.String()
	}
	tsTime := "none"
	if f.SignatureTimestampTime != nil {
		tsTime = f.SignatureTimestampTime.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("cms{signer=%q certs=%d contentType=%v messageDigest=%t signingTime=%t commitment=%t signingCert=%t sigTimestamp=%t sigTimestampTime=%s digest=%v sig=%v}",
		signer, len(f.Certificates), f.ContentType, f.HasMessageDigest, f.HasSigningTime, f.HasCommitmentType,
		f.HasSigningCertificate, f.HasSignatureTimestamp, tsTime, f.DigestAlgorithm, f.SignatureAlgorithm)
}

func matchesSID(cert *x509.Certificate, sid IssuerAndSerialNumber) bool {
	if sid.SerialNumber == nil || cert.SerialNumber.Cmp(sid.SerialNumber) != 0 {
		return false
	}
	return bytes.Equal(cert.RawIssuer, sid.Issuer.FullBytes)
}

// trimPadding drops the zero padding a PDF /Contents placeholder leaves after
// the DER structure.
func trimPadding(data []byte) []byte {
	var raw asn1.RawValue
	rest, err := asn1.Unmarshal(data, &raw)
	if err != nil || len(rest) == 0 {
		return data
	}
	if len(bytes.Trim(rest, "\x00")) == 0 {
		return raw.FullBytes
	}
	return data
}
