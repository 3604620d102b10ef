package signature

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrIntegrity is the signing-time hash mismatch: the stored document no
// longer matches what the signer confirmed. Always fails closed.
var ErrIntegrity = errors.New("document hash mismatch")

// ErrNotFound is returned when the opinion or its signature is absent.
var ErrNotFound = errors.New("signature not found")

// ErrNotSigner is returned when someone other than the authoring
// professional attempts to sign.
var ErrNotSigner = errors.New("signer is not the authoring professional")

// ErrAlreadySigned guards the one-signature-per-opinion invariant.
var ErrAlreadySigned = errors.New("opinion is already signed")

type Repository interface {
	Insert(ctx context.Context, sig *DigitalSignature) error
	GetByOpinion(ctx context.Context, opinionID uuid.UUID) (*DigitalSignature, error)
}
