package pades

// Non-conformity and warning messages.
const (
	MsgCertificatesMustBePresent         = "CERTIFICATES_MUST_BE_PRESENT_IN_THE_SIGNED_DATA"
	MsgSigningCertificateMustBeIncluded  = "THE_SIGNING_CERTIFICATE_ATTRIBUTE_MUST_BE_INCLUDED"
	MsgContentTypeMustBeIDData           = "THE_CONTENT_TYPE_ATTRIBUTE_MUST_HAVE_VALUE_ID_DATA"
	MsgMessageDigestMustBePresent        = "THE_MESSAGE_DIGEST_ATTRIBUTE_MUST_BE_PRESENT"
	MsgCommitmentTypeAndReasonExclusive  = "THE_COMMITMENT_TYPE_INDICATION_AND_REASON_SHALL_NOT_BOTH_BE_PRESENT_AND_ONE_IS_REQUIRED"
	MsgSigningTimeMustNotBePresent       = "THE_SIGNING_TIME_ATTRIBUTE_MUST_NOT_BE_PRESENT"
	MsgSigningDateMustBePresent          = "THE_M_ENTRY_IN_THE_SIGNATURE_DICTIONARY_MUST_BE_PRESENT"
	MsgCertEntryMustNotBePresent         = "THE_CERT_ENTRY_IN_THE_SIGNATURE_DICTIONARY_MUST_NOT_BE_PRESENT"
	MsgSubFilterMustBeCAdESDetached      = "THE_SUBFILTER_ENTRY_MUST_BE_ETSI_CADES_DETACHED"
	MsgByteRangeMustBePresent            = "THE_BYTE_RANGE_ENTRY_MUST_BE_PRESENT"
	MsgTimestampSubFilterMustBeRFC3161   = "THE_DOCUMENT_TIMESTAMP_SUBFILTER_MUST_BE_ETSI_RFC3161"
	MsgTimestampMustBeAvailable          = "THERE_MUST_BE_A_SIGNATURE_OR_DOCUMENT_TIMESTAMP_AVAILABLE"
	MsgDSSDictionaryIsMissing            = "DSS_DICTIONARY_IS_MISSING"
	MsgIssuerIsMissing                   = "ISSUER_FOR_THESE_CERTIFICATES_IS_MISSING"
	MsgIssuerIsNotInDSS                  = "ISSUER_FOR_THESE_CERTIFICATES_IS_NOT_IN_DSS"
	MsgRevocationDataIsMissing           = "REVOCATION_DATA_FOR_THESE_CERTIFICATES_IS_MISSING"
	MsgDocumentTimestampMustCoverDSS     = "THERE_MUST_BE_A_DOCUMENT_TIMESTAMP_COVERING_THE_DSS"
	MsgRevocationDataNotTimestamped      = "REVOCATION_DATA_FOR_THESE_CERTIFICATES_NOT_TIMESTAMPED"
	MsgForbiddenAlgorithmUsed            = "A_FORBIDDEN_HASH_OR_SIGNING_ALGORITHM_WAS_USED"
	MsgDiscouragedAlgorithmUsed          = "A_DISCOURAGED_HASH_OR_SIGNING_ALGORITHM_WAS_USED"
	MsgDocumentTimestampValidationFailed = "THE_DOCUMENT_TIMESTAMP_COULD_NOT_BE_VALIDATED"
)

// Requirement is a named predicate over captured facts. Check returns true
// when the requirement is met; a violation is filed under Level with Message.
type Requirement struct {
	Name    string
	Message string
	Level   Level
	Check   func(*SignatureFacts) bool
}

// RequirementTable is an ordered set of requirements.
type RequirementTable []Requirement

// Evaluate returns the requirements violated by facts, in table order.
func (t RequirementTable) Evaluate(facts *SignatureFacts) []Requirement {
	var violated []Requirement
	for _, req := range t {
		if !req.Check(facts) {
			violated = append(violated, req)
		}
	}
	return violated
}

// SignatureRequirements returns the B-B requirements for a signature
// dictionary and its CMS.
func SignatureRequirements() RequirementTable {
	return RequirementTable{
		{
			Name:    "certificates-present",
			Message: MsgCertificatesMustBePresent,
			Level:   LevelBB,
			Check: func(f *SignatureFacts) bool {
				return f.CMS != nil && len(f.CMS.Certificates) > 0
			},
		},
		{
			Name:    "signing-certificate-included",
			Message: MsgSigningCertificateMustBeIncluded,
			Level:   LevelBB,
			Check: func(f *SignatureFacts) bool {
				return f.CMS != nil && f.CMS.HasSigningCertificate
			},
		},
		{
			Name:    "content-type-is-id-data",
			Message: MsgContentTypeMustBeIDData,
			Level:   LevelBB,
			Check: func(f *SignatureFacts) bool {
				return f.CMS != nil && f.CMS.ContentTypeIsData()
			},
		},
		{
			Name:    "message-digest-present",
			Message: MsgMessageDigestMustBePresent,
			Level:   LevelBB,
			Check: func(f *SignatureFacts) bool {
				return f.CMS != nil && f.CMS.HasMessageDigest
			},
		},
		{
			Name:    "commitment-type-xor-reason",
			Message: MsgCommitmentTypeAndReasonExclusive,
			Level:   LevelBB,
			Check: func(f *SignatureFacts) bool {
				commitment := f.CMS != nil && f.CMS.HasCommitmentType
				return commitment != f.HasReason
			},
		},
		{
			Name:    "signing-time-excluded",
			Message: MsgSigningTimeMustNotBePresent,
			Level:   LevelBB,
			Check: func(f *SignatureFacts) bool {
				return f.CMS == nil || !f.CMS.HasSigningTime
			},
		},
		{
			Name:    "m-entry-present",
			Message: MsgSigningDateMustBePresent,
			Level:   LevelBB,
			Check:   func(f *SignatureFacts) bool { return f.HasM },
		},
		{
			Name:    "cert-entry-absent",
			Message: MsgCertEntryMustNotBePresent,
			Level:   LevelBB,
			Check:   func(f *SignatureFacts) bool { return !f.HasCert },
		},
		{
			Name:    "subfilter-cades-detached",
			Message: MsgSubFilterMustBeCAdESDetached,
			Level:   LevelBB,
			Check:   func(f *SignatureFacts) bool { return f.SubFilter == SubFilterCAdESDetached },
		},
		{
			Name:    "byte-range-present",
			Message: MsgByteRangeMustBePresent,
			Level:   LevelBB,
			Check:   func(f *SignatureFacts) bool { return f.HasByteRange },
		},
	}
}

// TimestampRequirements returns the requirements for a document timestamp
// dictionary. Violations are filed under B_LTA of the signature the
// timestamp is attributed to.
func TimestampRequirements() RequirementTable {
	return RequirementTable{
		{
			Name:    "subfilter-rfc3161",
			Message: MsgTimestampSubFilterMustBeRFC3161,
			Level:   LevelBLTA,
			Check:   func(f *SignatureFacts) bool { return f.SubFilter == SubFilterRFC3161 },
		},
	}
}
