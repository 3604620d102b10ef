package signature

import (
	"time"

	"github.com/google/uuid"
)

// Method is the mechanism the signer used to apply the signature.
type Method string

const (
	MethodElectronic  Method = "electronic"
	MethodBiometric   Method = "biometric"
	MethodCertificate Method = "certificate"
)

// Valid reports whether m is a known signing method.
func (m Method) Valid() bool {
	switch m {
	case MethodElectronic, MethodBiometric, MethodCertificate:
		return true
	}
	return false
}

// DigitalSignature binds a content hash to a signed opinion. Immutable once
// created; exactly one per signed opinion.
type DigitalSignature struct {
	ID            uuid.UUID `db:"id" json:"id"`
	OpinionID     uuid.UUID `db:"opinion_id" json:"opinion_id"`
	DocumentHash  string    `db:"document_hash" json:"document_hash"`
	Method        Method    `db:"method" json:"method"`
	SignerID      uuid.UUID `db:"signer_id" json:"signer_id"`
	SignatureData string    `db:"signature_data" json:"-"`
	Verified      bool      `db:"verified" json:"verified"`
	SignedAt      time.Time `db:"signed_at" json:"signed_at"`
}
