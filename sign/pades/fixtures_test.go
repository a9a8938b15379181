package pades

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/georgepadayatti/gopades/pdf/generic"
	"github.com/georgepadayatti/gopades/sign/cms"
	"github.com/georgepadayatti/gopades/sign/dss"
)

const (
	oidMD5    = "1.2.840.113549.2.5"
	oidSHA1   = "1.3.14.3.2.26"
	oidSHA256 = "2.16.840.1.101.3.4.2.1"
)

type fixture struct {
	cert    *x509.Certificate
	key     crypto.Signer
	tsaCert *x509.Certificate
	tsaKey  crypto.Signer
}

func generateTestCertAndKey(t *testing.T, cn string, serial int64) (*x509.Certificate, crypto.Signer) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: cn, Organization: []string{"Test Org"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}
	return cert, key
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cert, key := generateTestCertAndKey(t, "Test Signer", 100)
	tsaCert, tsaKey := generateTestCertAndKey(t, "Test TSA", 200)
	return &fixture{cert: cert, key: key, tsaCert: tsaCert, tsaKey: tsaKey}
}

// signCMS produces a baseline B-B CMS blob: commitment type instead of a
// /Reason, no signing time. setup may alter the builder.
func (f *fixture) signCMS(t *testing.T, setup func(b *cms.Builder)) []byte {
	t.Helper()
	b := cms.NewBuilder(f.cert, f.key, cms.SHA256WithECDSA)
	b.CommitmentType = cms.OIDCommitmentProofOfOrigin
	if setup != nil {
		setup(b)
	}
	blob, err := b.Sign([]byte("signed revision bytes"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	return blob
}

// withSignatureTimestamp adds a signature timestamp token to the CMS.
func (f *fixture) withSignatureTimestamp(t *testing.T) func(b *cms.Builder) {
	t.Helper()
	imprint := sha256.Sum256([]byte("signature value"))
	token, err := cms.NewTimestampToken(f.tsaCert, f.tsaKey, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), imprint[:])
	if err != nil {
		t.Fatalf("NewTimestampToken failed: %v", err)
	}
	return func(b *cms.Builder) { b.SignatureTimestamp = token }
}

func signatureDict(blob []byte) *generic.DictionaryObject {
	dict := generic.NewDictionary()
	dict.Set("Type", generic.NameObject("Sig"))
	dict.Set("Filter", generic.NameObject("Adobe.PPKLite"))
	dict.Set("SubFilter", generic.NameObject(SubFilterCAdESDetached))
	dict.Set("ByteRange", generic.NewArray(
		generic.IntegerObject(0), generic.IntegerObject(100),
		generic.IntegerObject(200), generic.IntegerObject(300)))
	dict.Set("M", generic.NewTextString("D:20240501120000Z"))
	if blob != nil {
		dict.Set("Contents", generic.NewHexString(blob))
	}
	return dict
}

func timestampDict(subFilter string) *generic.DictionaryObject {
	dict := generic.NewDictionary()
	dict.Set("Type", generic.NameObject("DocTimeStamp"))
	dict.Set("Filter", generic.NameObject("Adobe.PPKLite"))
	dict.Set("SubFilter", generic.NameObject(subFilter))
	return dict
}

func (f *fixture) dssDict() *generic.DictionaryObject {
	d := dss.NewDSS()
	d.AddCertificate(f.cert)
	d.AddCertificate(f.tsaCert)
	return d.ToPdfObject()
}

func (f *fixture) start(t *testing.T, name string, setup func(b *cms.Builder)) StartSignatureValidation {
	t.Helper()
	blob := f.signCMS(t, setup)
	return StartSignatureValidation{
		Dict: signatureDict(nil),
		CMS:  blob,
		Name: name,
		Date: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func run(g *ReportGenerator, events ...Event) *DocumentReport {
	for _, e := range events {
		g.OnEvent(e)
	}
	return g.Report()
}

func mustSignatureReport(t *testing.T, report *DocumentReport, name string) *SignatureReport {
	t.Helper()
	r, ok := report.SignatureReport(name)
	if !ok {
		t.Fatalf("no report for signature %q", name)
	}
	return r
}
