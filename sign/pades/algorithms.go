package pades

//go:generate mockgen -source=algorithms.go -destination=classifier_mock_test.go -package=pades

// AlgorithmSeverity classifies a hash or signature algorithm.
type AlgorithmSeverity int

const (
	AlgorithmAccepted AlgorithmSeverity = iota
	AlgorithmDiscouraged
	AlgorithmForbidden
)

// String returns the string representation of the severity.
func (s AlgorithmSeverity) String() string {
	switch s {
	case AlgorithmDiscouraged:
		return "discouraged"
	case AlgorithmForbidden:
		return "forbidden"
	default:
		return "accepted"
	}
}

// AlgorithmClassifier maps an algorithm to a severity. Name is informative;
// classification is by OID.
type AlgorithmClassifier interface {
	Classify(name, oid string) AlgorithmSeverity
}

// AlgorithmPolicy is an OID keyed AlgorithmClassifier. OIDs it does not list
// are accepted.
type AlgorithmPolicy struct {
	forbidden   map[string]string
	discouraged map[string]string
}

// NewAlgorithmPolicy creates an empty policy that accepts everything.
func NewAlgorithmPolicy() *AlgorithmPolicy {
	return &AlgorithmPolicy{
		forbidden:   make(map[string]string),
		discouraged: make(map[string]string),
	}
}

// DefaultAlgorithmPolicy forbids MD2, MD4 and MD5 based algorithms and
// discourages SHA-1 and RIPEMD-160 based ones.
func DefaultAlgorithmPolicy() *AlgorithmPolicy {
	return NewAlgorithmPolicy().
		WithForbidden("1.2.840.113549.2.2", "MD2").
		WithForbidden("1.2.840.113549.2.4", "MD4").
		WithForbidden("1.2.840.113549.2.5", "MD5").
		WithForbidden("1.2.840.113549.1.1.2", "md2WithRSAEncryption").
		WithForbidden("1.2.840.113549.1.1.3", "md4WithRSAEncryption").
		WithForbidden("1.2.840.113549.1.1.4", "md5WithRSAEncryption").
		WithDiscouraged("1.3.14.3.2.26", "SHA1").
		WithDiscouraged("1.2.840.113549.1.1.5", "sha1WithRSAEncryption").
		WithDiscouraged("1.2.840.10045.4.1", "ecdsa-with-SHA1").
		WithDiscouraged("1.2.840.10040.4.3", "dsa-with-sha1").
		WithDiscouraged("1.3.36.3.2.1", "RIPEMD160")
}

// WithForbidden marks oid as forbidden.
func (p *AlgorithmPolicy) WithForbidden(oid, name string) *AlgorithmPolicy {
	delete(p.discouraged, oid)
	p.forbidden[oid] = name
	return p
}

// WithDiscouraged marks oid as discouraged.
func (p *AlgorithmPolicy) WithDiscouraged(oid, name string) *AlgorithmPolicy {
	delete(p.forbidden, oid)
	p.discouraged[oid] = name
	return p
}

// WithAccepted removes oid from the forbidden and discouraged sets.
func (p *AlgorithmPolicy) WithAccepted(oid string) *AlgorithmPolicy {
	delete(p.forbidden, oid)
	delete(p.discouraged, oid)
	return p
}

// Classify implements AlgorithmClassifier.
func (p *AlgorithmPolicy) Classify(name, oid string) AlgorithmSeverity {
	if _, ok := p.forbidden[oid]; ok {
		return AlgorithmForbidden
	}
	if _, ok := p.discouraged[oid]; ok {
		return AlgorithmDiscouraged
	}
	return AlgorithmAccepted
}
