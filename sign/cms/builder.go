package cms

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/asn1"
	"fmt"
	"hash"
	"math/big"
	"time"
)

// Builder builds detached CMS SignedData structures. The set of signed and
// unsigned attributes is selectable so that both conforming and deliberately
// non-conforming PAdES signatures can be produced.
type Builder struct {
	Certificate *x509.Certificate
	CertChain   []*x509.Certificate
	PrivateKey  crypto.Signer
	Algorithm   SignatureAlgorithm

	// ContentType is the encapsulated content type; OIDData when nil.
	ContentType asn1.ObjectIdentifier
	// EContent is embedded as encapsulated content (timestamp tokens); nil for detached signatures.
	EContent []byte

	// SigningTime, when non-zero, is added as a signed attribute.
	SigningTime time.Time
	// CommitmentType, when set, is added as a commitment-type-indication attribute.
	CommitmentType asn1.ObjectIdentifier
	// SignatureTimestamp, when set, is added as the unsigned signature-time-stamp attribute.
	SignatureTimestamp []byte

	OmitContentType        bool
	OmitMessageDigest      bool
	OmitSigningCertificate bool
	OmitCertificates       bool
}

// NewBuilder creates a new builder producing a PAdES baseline compatible
// signature: content-type, message-digest and signing-certificate-v2, without
// signing time.
func NewBuilder(cert *x509.Certificate, key crypto.Signer, alg SignatureAlgorithm) *Builder {
	return &Builder{
		Certificate: cert,
		PrivateKey:  key,
		Algorithm:   alg,
	}
}

// Sign creates a CMS signature over data and returns the DER ContentInfo.
func (b *Builder) Sign(data []byte) ([]byte, error) {
	if b.Certificate == nil {
		return nil, ErrMissingCertificate
	}

	h, err := b.newHash()
	if err != nil {
		return nil, err
	}
	h.Write(data)

	signedAttrs := derSortAttributes(b.buildSignedAttributes(h.Sum(nil)))
	signedAttrsBytes, err := asn1.Marshal(signedAttrs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signed attributes: %w", err)
	}
	signedAttrsBytes[0] = 0x31 // SET tag

	h.Reset()
	h.Write(signedAttrsBytes)
	signature, err := b.signDigest(h.Sum(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	signerInfo := SignerInfo{
		Version: 1,
		SID: IssuerAndSerialNumber{
			Issuer:       asn1.RawValue{FullBytes: b.Certificate.RawIssuer},
			SerialNumber: b.Certificate.SerialNumber,
		},
		DigestAlgorithm: AlgorithmIdentifier{
			Algorithm:  b.Algorithm.DigestAlgorithm,
			Parameters: asn1.NullRawValue,
		},
		SignedAttrs: signedAttrs,
		SignatureAlgorithm: AlgorithmIdentifier{
			Algorithm:  b.Algorithm.SignatureAlgorithm,
			Parameters: signatureAlgorithmParameters(b.Algorithm.SignatureAlgorithm),
		},
		Signature: signature,
	}
	if len(b.SignatureTimestamp) > 0 {
		signerInfo.UnsignedAttrs = []Attribute{{
			Type:   OIDSignatureTimeStampToken,
			Values: []asn1.RawValue{{FullBytes: b.SignatureTimestamp}},
		}}
	}

	signedData := SignedData{
		Version: 1,
		DigestAlgorithms: []AlgorithmIdentifier{{
			Algorithm:  b.Algorithm.DigestAlgorithm,
			Parameters: asn1.NullRawValue,
		}},
		EncapContentInfo: EncapsulatedContentInfo{EContentType: b.contentType()},
		SignerInfos:      []SignerInfo{signerInfo},
	}
	if b.EContent != nil {
		octets, err := asn1.Marshal(b.EContent)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal content: %w", err)
		}
		signedData.EncapContentInfo.EContent = asn1.RawValue{
			Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: octets,
		}
	}

	if !b.OmitCertificates {
		signedData.Certificates = append(signedData.Certificates, asn1.RawValue{FullBytes: b.Certificate.Raw})
		for _, cert := range b.CertChain {
			signedData.Certificates = append(signedData.Certificates, asn1.RawValue{FullBytes: cert.Raw})
		}
	}

	signedDataBytes, err := asn1.Marshal(signedData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signed data: %w", err)
	}

	return asn1.Marshal(ContentInfo{
		ContentType: OIDSignedData,
		Content:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: signedDataBytes},
	})
}

// NewTimestampToken creates an RFC 3161 timestamp token over the given
// message digest, signed by the TSA certificate and key.
func NewTimestampToken(tsaCert *x509.Certificate, tsaKey crypto.Signer, genTime time.Time, imprint []byte) ([]byte, error) {
	tstInfo := TSTInfo{
		Version: 1,
		Policy:  asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 4146, 2, 3},
		MessageImprint: MessageImprint{
			HashAlgorithm: AlgorithmIdentifier{Algorithm: OIDSHA256, Parameters: asn1.NullRawValue},
			HashedMessage: imprint,
		},
		SerialNumber: big.NewInt(genTime.UnixNano()),
		GenTime:      genTime.UTC().Truncate(time.Second),
	}
	content, err := asn1.Marshal(tstInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TSTInfo: %w", err)
	}

	tsa := NewBuilder(tsaCert, tsaKey, algorithmFor(tsaKey))
	tsa.ContentType = OIDTSTInfo
	tsa.EContent = content
	return tsa.Sign(content)
}

func (b *Builder) contentType() asn1.ObjectIdentifier {
	if b.ContentType != nil {
		return b.ContentType
	}
	return OIDData
}

func (b *Builder) buildSignedAttributes(messageDigest []byte) []Attribute {
	var attrs []Attribute

	if !b.OmitContentType {
		attrs = append(attrs, mustAttribute(OIDContentType, b.contentType()))
	}
	if !b.OmitMessageDigest {
		attrs = append(attrs, mustAttribute(OIDMessageDigest, messageDigest))
	}
	if !b.SigningTime.IsZero() {
		attrs = append(attrs, mustAttribute(OIDSigningTime, b.SigningTime.UTC()))
	}
	if b.CommitmentType != nil {
		attrs = append(attrs, mustAttribute(OIDCommitmentTypeIndication,
			CommitmentTypeIndication{CommitmentTypeID: b.CommitmentType}))
	}
	if !b.OmitSigningCertificate {
		certHash := sha256.Sum256(b.Certificate.Raw)
		attrs = append(attrs, mustAttribute(OIDSigningCertificateV2, SigningCertificateV2{
			Certs: []ESSCertIDv2{{
				HashAlgorithm: AlgorithmIdentifier{Algorithm: OIDSHA256, Parameters: asn1.NullRawValue},
				CertHash:      certHash[:],
				IssuerSerial: IssuerSerial{
					Issuer: GeneralNames{Names: []asn1.RawValue{{
						Class:      asn1.ClassContextSpecific,
						Tag:        4, // directoryName
						IsCompound: true,
						Bytes:      b.Certificate.RawIssuer,
					}}},
					SerialNumber: b.Certificate.SerialNumber,
				},
			}},
		}))
	}

	return attrs
}

func mustAttribute(oid asn1.ObjectIdentifier, value any) Attribute {
	der, err := asn1.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("cms: marshal attribute %v: %v", oid, err))
	}
	return Attribute{Type: oid, Values: []asn1.RawValue{{FullBytes: der}}}
}

func signatureAlgorithmParameters(oid asn1.ObjectIdentifier) asn1.RawValue {
	switch {
	case oid.Equal(OIDSHA256WithRSA), oid.Equal(OIDSHA384WithRSA), oid.Equal(OIDSHA512WithRSA),
		oid.Equal(OIDSHA1WithRSA), oid.Equal(OIDMD5WithRSA):
		return asn1.NullRawValue
	default:
		return asn1.RawValue{}
	}
}

func algorithmFor(key crypto.Signer) SignatureAlgorithm {
	if _, ok := key.(*rsa.PrivateKey); ok {
		return SHA256WithRSA
	}
	return SHA256WithECDSA
}

func (b *Builder) newHash() (hash.Hash, error) {
	switch b.Algorithm.Hash {
	case crypto.SHA256:
		return sha256.New(), nil
	case crypto.SHA384:
		return sha512.New384(), nil
	case crypto.SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("%w: hash %v", ErrUnsupportedAlgorithm, b.Algorithm.Hash)
	}
}

func (b *Builder) signDigest(digest []byte) ([]byte, error) {
	switch key := b.PrivateKey.(type) {
	case *rsa.PrivateKey:
		return rsa.SignPKCS1v15(rand.Reader, key, b.Algorithm.Hash, digest)
	case nil:
		return nil, fmt.Errorf("%w: no private key", ErrUnsupportedAlgorithm)
	default:
		return key.Sign(rand.Reader, digest, b.Algorithm.Hash)
	}
}
