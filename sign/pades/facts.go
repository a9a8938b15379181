package pades

import (
	"log/slog"
	"time"

	"github.com/georgepadayatti/gopades/pdf/generic"
	"github.com/georgepadayatti/gopades/sign/cms"
)

// SubFilter values for PAdES dictionaries.
const (
	SubFilterCAdESDetached = "ETSI.CAdES.detached"
	SubFilterRFC3161       = "ETSI.RFC3161"
)

// SignatureFacts are the dictionary and CMS properties a scope is judged on.
// They are captured once when the scope opens.
type SignatureFacts struct {
	Filter       string
	SubFilter    string
	HasByteRange bool
	HasM         bool
	SigningDate  *time.Time
	HasReason    bool
	Reason       string
	HasCert      bool

	// CMS is nil when no blob was supplied or it could not be decoded.
	CMS *cms.Facts
}

// CaptureFacts reads SignatureFacts from a signature or timestamp dictionary
// and its CMS blob. When blob is nil the dictionary's /Contents is used. A
// blob that does not decode leaves CMS nil; it is never an error.
func CaptureFacts(dict *generic.DictionaryObject, blob []byte) *SignatureFacts {
	facts := &SignatureFacts{
		Filter:       dict.GetName("Filter"),
		SubFilter:    dict.GetName("SubFilter"),
		HasByteRange: dict.Has("ByteRange"),
		HasM:         dict.Has("M"),
		HasCert:      dict.Has("Cert"),
	}

	if m, ok := dict.GetText("M"); ok {
		if t, err := generic.ParseDate(m); err == nil {
			facts.SigningDate = &t
		}
	}
	if reason, ok := dict.GetText("Reason"); ok {
		facts.HasReason = true
		facts.Reason = reason
	}

	if blob == nil {
		if contents := dict.GetString("Contents"); contents != nil {
			blob = contents.Value
		}
	}
	if len(blob) > 0 {
		if cmsFacts, err := cms.ExtractFacts(blob); err == nil {
			facts.CMS = cmsFacts
		}
	}

	return facts
}

// HasSignatureTimestamp reports whether the CMS carries a signature
// timestamp token.
func (f *SignatureFacts) HasSignatureTimestamp() bool {
	return f.CMS != nil && f.CMS.HasSignatureTimestamp
}

// LogValue implements slog.LogValuer.
func (f *SignatureFacts) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("filter", f.Filter),
		slog.String("subfilter", f.SubFilter),
	}
	if f.SigningDate != nil {
		attrs = append(attrs, slog.Time("signing_date", *f.SigningDate))
	}
	if f.HasReason {
		attrs = append(attrs, slog.String("reason", f.Reason))
	}
	if f.CMS != nil {
		attrs = append(attrs, slog.String("cms", f.CMS.String()))
	}
	return slog.GroupValue(attrs...)
}
