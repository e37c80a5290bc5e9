package pbaas

import "errors"

var ErrNotPBaaS = errors.New("solution does not carry PBaaS headers")

// canonicalFields are zeroed for merged mining; every other byte is kept.
var canonicalFields = []span{
	headerRootsField,
	bitsField,
	nonceField,
	mmrRootsField,
}

// Canonicalize zeroes the non-canonical header and solution fields of buf in
// place. It does not verify anything; callers use Prepare.
func Canonicalize(buf []byte) error {
	v := NewView(buf)
	for _, s := range canonicalFields {
		b, err := v.field(s)
		if err != nil {
			return err
		}
		clear(b)
	}
	return nil
}

// Prepare takes exclusive ownership of buf for the duration of the call,
// verifies any merged-mining metadata and canonicalizes buf when the
// commitment authenticates. On return buf is ready to be hashed unless the
// decision is Rejected, in which case it is left untouched and must not be
// hashed.
func Prepare(buf []byte) Decision {
	d := Verify(buf)
	if d == Verified {
		// Verify has already read every canonical field, so this cannot fail.
		_ = Canonicalize(buf)
	}
	return d
}

// Seal writes the personalized hash of the current pre-header into the
// first chain descriptor, which is what a merged-mining pool does after
// changing the nonce or any other non-canonical field.
func Seal(buf []byte) error {
	v := NewView(buf)
	if !v.IsPBaaS() {
		return ErrNotPBaaS
	}
	commitment, err := v.PreHeaderHash(0)
	if err != nil {
		return err
	}
	pre, err := AssemblePreHeader(buf)
	if err != nil {
		return err
	}
	digest, err := pre.Hash()
	if err != nil {
		return err
	}
	copy(commitment, digest[:])
	return nil
}
