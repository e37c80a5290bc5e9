package pbaas

// Decision is the outcome of checking a buffer for merged-mining metadata.
type Decision uint8

const (
	// NotApplicable: legacy solution or no PBaaS headers declared.
	NotApplicable Decision = iota
	// AlreadyCanonical: the non-canonical fields are already zero.
	AlreadyCanonical
	// Verified: the commitment authenticates the non-canonical fields.
	Verified
	// Rejected: PBaaS headers are declared but the commitment does not match.
	Rejected
)

var decisionNames = [...]string{
	NotApplicable:    "not-applicable",
	AlreadyCanonical: "already-canonical",
	Verified:         "verified",
	Rejected:         "rejected",
}

func (d Decision) String() string {
	if int(d) < len(decisionNames) {
		return decisionNames[d]
	}
	return "unknown"
}

// Verify decides whether buf carries authentic merged-mining metadata.
// It never modifies buf.
//
// An all-zero pre-header is accepted as AlreadyCanonical without looking at
// the commitment. Any failure to read the roots or the first descriptor, or
// to compute the personalized hash, yields Rejected.
func Verify(buf []byte) Decision {
	v := NewView(buf)
	if !v.IsPBaaS() {
		return NotApplicable
	}
	n, err := v.NumPBaaSHeaders()
	if err != nil || n == 0 {
		return NotApplicable
	}

	pre, err := AssemblePreHeader(buf)
	if err != nil {
		return Rejected
	}
	if pre.IsZero() {
		return AlreadyCanonical
	}

	commitment, err := v.PreHeaderHash(0)
	if err != nil {
		return Rejected
	}
	digest, err := pre.Hash()
	if err != nil {
		return Rejected
	}
	if !digest.Equal(commitment) {
		return Rejected
	}
	return Verified
}
