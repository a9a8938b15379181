// Package dss provides Document Security Store (DSS) support for PAdES.
package dss

import (
	"bytes"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/georgepadayatti/gopades/pdf/generic"
)

// Common errors
var (
	ErrNoDSS      = errors.New("no DSS found in document")
	ErrInvalidDSS = errors.New("invalid DSS structure")
)

// DSS represents a Document Security Store.
type DSS struct {
	// Certs contains all certificates in the DSS.
	Certs []*x509.Certificate

	// OCSPs contains all DER OCSP responses.
	OCSPs [][]byte

	// CRLs contains all DER CRLs.
	CRLs [][]byte

	// VRI contains Validation Related Information keyed by upper-case hex
	// SHA-1 of the signature value.
	VRI map[string]*VRIEntry
}

// VRIEntry represents Validation Related Information for a signature.
type VRIEntry struct {
	SignatureHash string
	Certs         []*x509.Certificate
	OCSPs         [][]byte
	CRLs          [][]byte
}

// NewDSS creates a new empty DSS.
func NewDSS() *DSS {
	return &DSS{VRI: make(map[string]*VRIEntry)}
}

// AddCertificate adds a certificate unless it is already present.
func (d *DSS) AddCertificate(cert *x509.Certificate) {
	for _, existing := range d.Certs {
		if bytes.Equal(existing.Raw, cert.Raw) {
			return
		}
	}
	d.Certs = append(d.Certs, cert)
}

// AddOCSPResponse adds an OCSP response unless it is already present.
func (d *DSS) AddOCSPResponse(resp []byte) {
	d.OCSPs = appendUnique(d.OCSPs, resp)
}

// AddCRL adds a CRL unless it is already present.
func (d *DSS) AddCRL(crl []byte) {
	d.CRLs = appendUnique(d.CRLs, crl)
}

// VRIKey computes the VRI dictionary key for a signature value.
func VRIKey(signature []byte) string {
	sum := sha1.Sum(signature)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// ToPdfObject converts the DSS to a PDF dictionary.
func (d *DSS) ToPdfObject() *generic.DictionaryObject {
	dict := generic.NewDictionary()
	dict.Set("Type", generic.NameObject("DSS"))

	if len(d.Certs) > 0 {
		dict.Set("Certs", certStreams(d.Certs))
	}
	if len(d.OCSPs) > 0 {
		dict.Set("OCSPs", dataStreams(d.OCSPs))
	}
	if len(d.CRLs) > 0 {
		dict.Set("CRLs", dataStreams(d.CRLs))
	}

	if len(d.VRI) > 0 {
		vriDict := generic.NewDictionary()
		for key, vri := range d.VRI {
			entry := generic.NewDictionary()
			if len(vri.Certs) > 0 {
				entry.Set("Cert", certStreams(vri.Certs))
			}
			if len(vri.OCSPs) > 0 {
				entry.Set("OCSP", dataStreams(vri.OCSPs))
			}
			if len(vri.CRLs) > 0 {
				entry.Set("CRL", dataStreams(vri.CRLs))
			}
			vriDict.Set(key, entry)
		}
		dict.Set("VRI", vriDict)
	}

	return dict
}

// ParseDSS parses a DSS from a PDF dictionary. Entries that do not decode
// are skipped; a non-array /Certs, /OCSPs or /CRLs entry is an error.
func ParseDSS(dict *generic.DictionaryObject) (*DSS, error) {
	if dict == nil {
		return nil, ErrNoDSS
	}

	dss := NewDSS()

	certs, err := streamData(dict, "Certs")
	if err != nil {
		return nil, err
	}
	for _, data := range certs {
		if cert, err := x509.ParseCertificate(data); err == nil {
			dss.Certs = append(dss.Certs, cert)
		}
	}
	if dss.OCSPs, err = streamData(dict, "OCSPs"); err != nil {
		return nil, err
	}
	if dss.CRLs, err = streamData(dict, "CRLs"); err != nil {
		return nil, err
	}

	if vriDict := dict.GetDict("VRI"); vriDict != nil {
		for _, key := range vriDict.Keys() {
			entryDict := vriDict.GetDict(key)
			if entryDict == nil {
				continue
			}
			entry := &VRIEntry{SignatureHash: key}
			certData, _ := streamData(entryDict, "Cert")
			for _, data := range certData {
				if cert, err := x509.ParseCertificate(data); err == nil {
					entry.Certs = append(entry.Certs, cert)
				}
			}
			entry.OCSPs, _ = streamData(entryDict, "OCSP")
			entry.CRLs, _ = streamData(entryDict, "CRL")
			dss.VRI[key] = entry
		}
	}

	return dss, nil
}

// IsEmpty returns true if the DSS contains no data.
func (d *DSS) IsEmpty() bool {
	return len(d.Certs) == 0 && len(d.OCSPs) == 0 && len(d.CRLs) == 0 && len(d.VRI) == 0
}

// Summary returns a summary of the DSS contents.
func (d *DSS) Summary() string {
	return fmt.Sprintf("DSS: %d certs, %d OCSPs, %d CRLs, %d VRI entries",
		len(d.Certs), len(d.OCSPs), len(d.CRLs), len(d.VRI))
}

func streamData(dict *generic.DictionaryObject, key string) ([][]byte, error) {
	obj := dict.Get(key)
	if obj == nil {
		return nil, nil
	}
	arr, ok := obj.(generic.ArrayObject)
	if !ok {
		return nil, fmt.Errorf("%w: /%s is not an array", ErrInvalidDSS, key)
	}
	var out [][]byte
	for _, item := range arr {
		if stream, ok := item.(*generic.StreamObject); ok {
			out = append(out, stream.Data)
		}
	}
	return out, nil
}

func certStreams(certs []*x509.Certificate) generic.ArrayObject {
	arr := make(generic.ArrayObject, len(certs))
	for i, cert := range certs {
		arr[i] = generic.NewStream(nil, cert.Raw)
	}
	return arr
}

func dataStreams(items [][]byte) generic.ArrayObject {
	arr := make(generic.ArrayObject, len(items))
	for i, data := range items {
		arr[i] = generic.NewStream(nil, data)
	}
	return arr
}

func appendUnique(list [][]byte, item []byte) [][]byte {
	for _, existing := range list {
		if bytes.Equal(existing, item) {
			return list
		}
	}
	return append(list, item)
}
