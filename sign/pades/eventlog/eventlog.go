// Package eventlog reads recorded validation event streams from YAML and
// replays them into a pades.ReportGenerator.
//
// A log names the signature and timestamp dictionaries once and then lists
// events in emission order:
//
//	signatures:
//	  Signature1:
//	    dictionary: {Type: /Sig, SubFilter: /ETSI.CAdES.detached, M: "D:20240501120000Z"}
//	    cms-file: signature1.p7s
//	events:
//	  - {type: start, name: Signature1}
//	  - {type: revocation-not-from-dss, certificate: signer.pem}
//	  - {type: success}
//
// A dictionary may instead be given in PDF syntax under pdf, for example
// pdf: "<< /Type /Sig /SubFilter /ETSI.CAdES.detached /Contents <3082...> >>".
// The signature's CMS is then read from /Contents unless cms-file or
// cms-base64 is set.
package eventlog

import (
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/georgepadayatti/gopades/certs"
	"github.com/georgepadayatti/gopades/pdf/generic"
	"github.com/georgepadayatti/gopades/sign/dss"
	"github.com/georgepadayatti/gopades/sign/pades"
)

// Event types accepted in a log.
const (
	TypeProofOfExistence     = "proof-of-existence"
	TypeStart                = "start"
	TypeSuccess              = "success"
	TypeFailure              = "failure"
	TypeDSS                  = "dss"
	TypeIssuerExternal       = "issuer-external"
	TypeIssuerOutsideDSS     = "issuer-outside-dss"
	TypeRevocationNotFromDSS = "revocation-not-from-dss"
	TypeDSSNotTimestamped    = "dss-not-timestamped"
	TypeAlgorithm            = "algorithm"
	TypeDSSCoverage          = "dss-coverage"
)

// Common errors
var (
	ErrInvalidLog       = errors.New("invalid event log")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrUnknownName      = errors.New("unknown signature name")
	ErrMissingField     = errors.New("missing required field")
)

// EntryError reports a problem with one entry of the events list.
type EntryError struct {
	Index int
	Type  string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("event %d (%s): %v", e.Index, e.Type, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Handler consumes events. *pades.ReportGenerator implements it.
type Handler interface {
	OnEvent(pades.Event)
}

// Log is a parsed event log.
type Log struct {
	Events []pades.Event
}

// Replay delivers every event to h in order.
func (l *Log) Replay(h Handler) {
	for _, e := range l.Events {
		h.OnEvent(e)
	}
}

type document struct {
	Signatures map[string]signatureEntry `yaml:"signatures"`
	Events     []eventEntry              `yaml:"events"`
}

type signatureEntry struct {
	Dictionary map[string]any `yaml:"dictionary"`
	PDF        string         `yaml:"pdf"`
	CMSFile    string         `yaml:"cms-file"`
	CMSBase64  string         `yaml:"cms-base64"`
}

type eventEntry struct {
	Type         string          `yaml:"type"`
	Name         string          `yaml:"name"`
	Date         string          `yaml:"date"`
	Certificate  string          `yaml:"certificate"`
	Certificates []string        `yaml:"certificates"`
	Algorithm    *algorithmEntry `yaml:"algorithm"`
	Fatal        bool            `yaml:"fatal"`
	Reason       string          `yaml:"reason"`
	Dictionary   map[string]any  `yaml:"dictionary"`
	PDF          string          `yaml:"pdf"`
}

type algorithmEntry struct {
	Name    string `yaml:"name"`
	OID     string `yaml:"oid"`
	Context string `yaml:"context"`
}

// Load reads an event log file. Relative paths inside it are resolved
// against the file's directory.
func Load(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse parses an event log. Relative paths are resolved against baseDir.
func Parse(data []byte, baseDir string) (*Log, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLog, err)
	}

	p := &parser{
		baseDir: baseDir,
		doc:     &doc,
		certs:   make(map[string][]*x509.Certificate),
	}

	log := &Log{}
	for i, entry := range doc.Events {
		events, err := p.convert(entry)
		if err != nil {
			return nil, &EntryError{Index: i, Type: entry.Type, Err: err}
		}
		log.Events = append(log.Events, events...)
	}
	return log, nil
}

type parser struct {
	baseDir string
	doc     *document
	certs   map[string][]*x509.Certificate
	lastDSS *dss.DSS
}

func (p *parser) convert(e eventEntry) ([]pades.Event, error) {
	switch e.Type {
	case TypeStart:
		dict, blob, err := p.signature(e.Name)
		if err != nil {
			return nil, err
		}
		date, err := parseDate(e.Date)
		if err != nil {
			return nil, err
		}
		return one(pades.StartSignatureValidation{Dict: dict, CMS: blob, Name: e.Name, Date: date}), nil

	case TypeProofOfExistence:
		dict, _, err := p.signature(e.Name)
		if err != nil {
			return nil, err
		}
		return one(pades.ProofOfExistenceFound{Dict: dict, Name: e.Name}), nil

	case TypeSuccess:
		return one(pades.SignatureValidationSuccess{}), nil

	case TypeFailure:
		return one(pades.SignatureValidationFailure{Fatal: e.Fatal, Name: e.Name, Reason: e.Reason}), nil

	case TypeDSS:
		// Coverage is only ever checked against the latest store.
		p.lastDSS = nil
		var dict *generic.DictionaryObject
		if e.Dictionary != nil || e.PDF != "" {
			var err error
			if dict, err = p.dictionaryFrom(e.Dictionary, e.PDF); err != nil {
				return nil, err
			}
			if parsed, err := dss.ParseDSS(dict); err == nil {
				p.lastDSS = parsed
			}
		}
		return one(pades.DSSProcessed{Dict: dict}), nil

	case TypeIssuerExternal, TypeIssuerOutsideDSS, TypeRevocationNotFromDSS, TypeDSSNotTimestamped:
		if e.Certificate == "" {
			return nil, fmt.Errorf("%w: certificate", ErrMissingField)
		}
		cert, err := p.certificate(e.Certificate)
		if err != nil {
			return nil, err
		}
		return one(certificateEvent(e.Type, cert)), nil

	case TypeAlgorithm:
		if e.Algorithm == nil || e.Algorithm.OID == "" {
			return nil, fmt.Errorf("%w: algorithm.oid", ErrMissingField)
		}
		return one(pades.AlgorithmUsage{Name: e.Algorithm.Name, OID: e.Algorithm.OID, Context: e.Algorithm.Context}), nil

	case TypeDSSCoverage:
		var chain []*x509.Certificate
		for _, path := range e.Certificates {
			loaded, err := p.certificates(path)
			if err != nil {
				return nil, err
			}
			chain = append(chain, loaded...)
		}
		return CoverageEvents(p.lastDSS, chain), nil

	default:
		return nil, ErrUnknownEventType
	}
}

func one(e pades.Event) []pades.Event {
	return []pades.Event{e}
}

func certificateEvent(eventType string, cert *x509.Certificate) pades.Event {
	switch eventType {
	case TypeIssuerExternal:
		return pades.CertificateIssuerExternalRetrieval{Cert: cert}
	case TypeIssuerOutsideDSS:
		return pades.CertificateIssuerRetrievedOutsideDSS{Cert: cert}
	case TypeRevocationNotFromDSS:
		return pades.RevocationNotFromDSS{Cert: cert}
	default:
		return pades.DSSNotTimestamped{Cert: cert}
	}
}

// signature resolves a named dictionary and its CMS blob.
func (p *parser) signature(name string) (*generic.DictionaryObject, []byte, error) {
	if name == "" {
		return nil, nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	entry, ok := p.doc.Signatures[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}

	dict, err := p.dictionaryFrom(entry.Dictionary, entry.PDF)
	if err != nil {
		return nil, nil, err
	}

	var blob []byte
	switch {
	case entry.CMSFile != "":
		if blob, err = os.ReadFile(p.resolve(entry.CMSFile)); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidLog, err)
		}
	case entry.CMSBase64 != "":
		if blob, err = base64.StdEncoding.DecodeString(entry.CMSBase64); err != nil {
			return nil, nil, fmt.Errorf("%w: cms-base64: %v", ErrInvalidLog, err)
		}
	}
	return dict, blob, nil
}

// certificate loads a file holding exactly one PEM or DER certificate.
func (p *parser) certificate(path string) (*x509.Certificate, error) {
	loaded, err := p.certificates(path)
	if err != nil {
		return nil, err
	}
	if len(loaded) != 1 {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLog, path, certs.ErrMultipleCerts)
	}
	return loaded[0], nil
}

// certificates loads every certificate in a PEM or DER file, caching by path.
func (p *parser) certificates(path string) ([]*x509.Certificate, error) {
	if loaded, ok := p.certs[path]; ok {
		return loaded, nil
	}
	loaded, err := certs.LoadAll(p.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLog, err)
	}
	p.certs[path] = loaded
	return loaded, nil
}

// parseDate accepts a PDF date or RFC 3339. An empty string is the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := generic.ParseDate(s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidLog, s)
	}
	return t, nil
}
