package eventlog

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/georgepadayatti/gopades/certs"
	"github.com/georgepadayatti/gopades/sign/cms"
	"github.com/georgepadayatti/gopades/sign/dss"
	"github.com/georgepadayatti/gopades/sign/pades"
)

type testPKI struct {
	ca      *x509.Certificate
	caKey   crypto.Signer
	leaf    *x509.Certificate
	leafKey crypto.Signer
}

func newTestPKI(t *testing.T) *testPKI {
	t.Helper()

	newKey := func() *ecdsa.PrivateKey {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			t.Fatalf("Failed to generate key: %v", err)
		}
		return key
	}
	issue := func(template, parent *x509.Certificate, pub any, signer crypto.Signer) *x509.Certificate {
		der, err := x509.CreateCertificate(rand.Reader, template, parent, pub, signer)
		if err != nil {
			t.Fatalf("Failed to create certificate: %v", err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			t.Fatalf("Failed to parse certificate: %v", err)
		}
		return cert
	}

	caKey := newKey()
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	ca := issue(caTemplate, caTemplate, &caKey.PublicKey, caKey)

	leafKey := newKey()
	leaf := issue(&x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "Test Signer"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}, ca, &leafKey.PublicKey, caKey)

	return &testPKI{ca: ca, caKey: caKey, leaf: leaf, leafKey: leafKey}
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// writeFixtures writes signer.pem, chain.pem, ca.der and signature1.p7s into dir.
func writeFixtures(t *testing.T, dir string, pki *testPKI) {
	t.Helper()
	b := cms.NewBuilder(pki.leaf, pki.leafKey, cms.SHA256WithECDSA)
	b.CommitmentType = cms.OIDCommitmentProofOfOrigin
	b.CertChain = []*x509.Certificate{pki.ca}
	blob, err := b.Sign([]byte("revision"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	writeFile(t, dir, "signature1.p7s", blob)
	writeFile(t, dir, "signer.pem", certs.EncodePEM(pki.leaf))
	writeFile(t, dir, "chain.pem", certs.EncodePEM(pki.leaf, pki.ca))
	writeFile(t, dir, "ca.der", pki.ca.Raw)
}

const archivalLog = `
signatures:
  Signature1:
    dictionary:
      Type: /Sig
      Filter: /Adobe.PPKLite
      SubFilter: /ETSI.CAdES.detached
      ByteRange: [0, 100, 200, 300]
      M: "D:20240501120000Z"
    cms-file: signature1.p7s
  ts1:
    dictionary:
      Type: /DocTimeStamp
      SubFilter: /ETSI.RFC3161
events:
  - type: proof-of-existence
    name: ts1
  - type: success
  - type: dss
    dictionary:
      Type: /DSS
      Certs:
        - stream-file: ca.der
  - type: start
    name: Signature1
    date: 2024-05-01T12:00:00Z
  - type: issuer-outside-dss
    certificate: signer.pem
  - type: algorithm
    algorithm: {name: SHA256, oid: 2.16.840.1.101.3.4.2.1, context: message digest}
  - type: success
`

func TestReplayArchivalLog(t *testing.T) {
	dir := t.TempDir()
	pki := newTestPKI(t)
	writeFixtures(t, dir, pki)
	writeFile(t, dir, "events.yaml", []byte(archivalLog))

	log, err := Load(filepath.Join(dir, "events.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(log.Events) != 7 {
		t.Fatalf("events = %d, want 7", len(log.Events))
	}

	start, ok := log.Events[3].(pades.StartSignatureValidation)
	if !ok {
		t.Fatalf("event 3 = %T, want StartSignatureValidation", log.Events[3])
	}
	if start.Dict.GetName("SubFilter") != pades.SubFilterCAdESDetached {
		t.Errorf("SubFilter = %q", start.Dict.GetName("SubFilter"))
	}
	if m, _ := start.Dict.GetText("M"); m != "D:20240501120000Z" {
		t.Errorf("M = %q", m)
	}
	if !start.Date.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", start.Date)
	}

	g := pades.NewReportGenerator()
	log.Replay(g)

	r, ok := g.Report().SignatureReport("Signature1")
	if !ok {
		t.Fatal("no report for Signature1")
	}
	if r.Level() != pades.LevelBLTA {
		t.Errorf("level = %v, want B_LTA (non-conformities %v)", r.Level(), r.NonConformities())
	}
	if !r.HasWarning(pades.LevelBLT, pades.MsgIssuerIsNotInDSS) {
		t.Errorf("B_LT warnings = %v", r.WarningsAt(pades.LevelBLT))
	}
	if g.Report().DSSSummary() == "" {
		t.Error("DSS summary should be recorded")
	}
}

func TestParseInlineCMSAndFailure(t *testing.T) {
	pki := newTestPKI(t)
	b := cms.NewBuilder(pki.leaf, pki.leafKey, cms.SHA256WithECDSA)
	blob, err := b.Sign([]byte("revision"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	data := []byte(`
signatures:
  sig:
    dictionary: {SubFilter: /ETSI.CAdES.detached, Reason: "Approved"}
    cms-base64: ` + base64.StdEncoding.EncodeToString(blob) + `
events:
  - {type: start, name: sig}
  - {type: failure, name: sig, fatal: true, reason: chain incomplete}
`)

	log, err := Parse(data, "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	start := log.Events[0].(pades.StartSignatureValidation)
	if len(start.CMS) == 0 {
		t.Error("inline CMS should be decoded")
	}
	failure := log.Events[1].(pades.SignatureValidationFailure)
	if !failure.Fatal || failure.Reason != "chain incomplete" {
		t.Errorf("failure = %+v", failure)
	}

	g := pades.NewReportGenerator()
	log.Replay(g)
	if got := g.Report().DocumentLevel(); got != pades.LevelIndeterminate {
		t.Errorf("document level = %v, want INDETERMINATE", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"bad yaml", "events: [", ErrInvalidLog},
		{"unknown type", "events: [{type: bogus}]", ErrUnknownEventType},
		{"unknown name", "events: [{type: start, name: nope}]", ErrUnknownName},
		{"missing name", "events: [{type: proof-of-existence}]", ErrMissingField},
		{"missing certificate", "events: [{type: revocation-not-from-dss}]", ErrMissingField},
		{"missing oid", "events: [{type: algorithm, algorithm: {name: MD5}}]", ErrMissingField},
		{"unreadable certificate", "events: [{type: issuer-external, certificate: /nonexistent/cert.pem}]", ErrInvalidLog},
		{"bad date", "signatures: {s: {dictionary: {}}}\nevents: [{type: start, name: s, date: yesterday}]", ErrInvalidLog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), t.TempDir())
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	_, err := Parse([]byte("events: [{type: success}, {type: bogus}]"), "")
	var entryErr *EntryError
	if !errors.As(err, &entryErr) || entryErr.Index != 1 || entryErr.Type != "bogus" {
		t.Errorf("got %v, want EntryError for entry 1", err)
	}
}

func TestCoverageEvents(t *testing.T) {
	pki := newTestPKI(t)

	events := CoverageEvents(nil, []*x509.Certificate{pki.leaf, pki.ca})
	if len(events) != 2 {
		t.Fatalf("events = %v, want issuer and revocation events for the leaf only", events)
	}
	if _, ok := events[0].(pades.CertificateIssuerRetrievedOutsideDSS); !ok {
		t.Errorf("events[0] = %T", events[0])
	}
	if _, ok := events[1].(pades.RevocationNotFromDSS); !ok {
		t.Errorf("events[1] = %T", events[1])
	}

	d := dss.NewDSS()
	d.AddCertificate(pki.ca)
	events = CoverageEvents(d, []*x509.Certificate{pki.leaf})
	if len(events) != 1 {
		t.Fatalf("events = %v, want revocation event only", events)
	}
	if e, ok := events[0].(pades.RevocationNotFromDSS); !ok || !e.Cert.Equal(pki.leaf) {
		t.Errorf("events[0] = %#v", events[0])
	}
}

func TestDSSCoverageEntry(t *testing.T) {
	dir := t.TempDir()
	pki := newTestPKI(t)
	writeFixtures(t, dir, pki)

	data := []byte(`
events:
  - type: dss
    dictionary:
      Certs: [{stream-file: ca.der}]
  - type: dss-coverage
    certificates: [signer.pem, ca.der]
`)
	log, err := Parse(data, dir)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(log.Events) != 2 {
		t.Fatalf("events = %d, want DSSProcessed plus one revocation event", len(log.Events))
	}
	if _, ok := log.Events[1].(pades.RevocationNotFromDSS); !ok {
		t.Errorf("events[1] = %T", log.Events[1])
	}
}

func TestDSSCoverageEntryReadsBundles(t *testing.T) {
	dir := t.TempDir()
	pki := newTestPKI(t)
	writeFixtures(t, dir, pki)

	log, err := Parse([]byte(`
events:
  - type: dss
    dictionary:
      Certs: [{stream-file: ca.der}]
  - type: dss-coverage
    certificates: [chain.pem]
`), dir)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(log.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(log.Events))
	}
	if _, ok := log.Events[1].(pades.RevocationNotFromDSS); !ok {
		t.Errorf("events[1] = %T", log.Events[1])
	}

	_, err = Parse([]byte(`
events:
  - type: issuer-external
    certificate: chain.pem
`), dir)
	if !errors.Is(err, certs.ErrMultipleCerts) || !errors.Is(err, ErrInvalidLog) {
		t.Errorf("bundle on a single-certificate event: got %v", err)
	}
}

func TestDSSCoverageAfterUnparsableDSS(t *testing.T) {
	dir := t.TempDir()
	pki := newTestPKI(t)
	writeFixtures(t, dir, pki)

	log, err := Parse([]byte(`
events:
  - type: dss
    dictionary:
      Certs: [{stream-file: ca.der}]
  - type: dss
    dictionary:
      Certs: 5
  - type: dss-coverage
    certificates: [signer.pem]
`), dir)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(log.Events) != 4 {
		t.Fatalf("events = %d, want two DSSProcessed plus issuer and revocation events", len(log.Events))
	}
	if _, ok := log.Events[2].(pades.CertificateIssuerRetrievedOutsideDSS); !ok {
		t.Errorf("events[2] = %T, the earlier store must not be consulted", log.Events[2])
	}
	if _, ok := log.Events[3].(pades.RevocationNotFromDSS); !ok {
		t.Errorf("events[3] = %T", log.Events[3])
	}
}

func TestPDFSyntaxDictionaries(t *testing.T) {
	dir := t.TempDir()
	pki := newTestPKI(t)
	writeFixtures(t, dir, pki)
	blob, err := os.ReadFile(filepath.Join(dir, "signature1.p7s"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	data := []byte(`
signatures:
  Signature1:
    pdf: "<< /Type /Sig /Filter /Adobe.PPKLite /SubFilter /ETSI.CAdES.detached /ByteRange [0 1 2 3] /M (D:20240501120000Z) /Contents <` + hex.EncodeToString(blob) + `> >>"
events:
  - type: dss
    pdf: "<< /Type /DSS /Certs [] >>"
  - type: start
    name: Signature1
  - type: success
`)
	log, err := Parse(data, dir)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	g := pades.NewReportGenerator()
	log.Replay(g)
	report, ok := g.Report().SignatureReport("Signature1")
	if !ok {
		t.Fatal("Signature1 report missing")
	}
	if report.Level() != pades.LevelBB {
		t.Errorf("level = %v, want B_B; non-conformities %v", report.Level(), report.NonConformities())
	}
	if len(report.NonConformitiesAt(pades.LevelBB)) != 0 {
		t.Errorf("/Contents should supply the CMS: %v", report.NonConformitiesAt(pades.LevelBB))
	}

	tests := []struct {
		name string
		data string
	}{
		{"malformed pdf", "signatures: {S: {pdf: \"<< /Type /Sig\"}}\nevents: [{type: start, name: S}]"},
		{"reference", "signatures: {S: {pdf: \"<< /V 1 0 R >>\"}}\nevents: [{type: start, name: S}]"},
		{"both forms", "signatures: {S: {pdf: \"<< >>\", dictionary: {Type: /Sig}}}\nevents: [{type: start, name: S}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), dir); !errors.Is(err, ErrInvalidLog) {
				t.Errorf("got %v, want ErrInvalidLog", err)
			}
		})
	}
}
