package registry

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyRegistered indicates a register collided with an existing record.
	ErrAlreadyRegistered = errors.New("record already registered")
	// ErrNotController indicates a mutation by a principal that does not own
	// the record.
	ErrNotController = errors.New("caller is not the record controller")
	// ErrRevoked indicates an operation against a revoked credential.
	ErrRevoked = errors.New("credential is revoked")
)

// KeyRecord is a verification key attached to a device record.
type KeyRecord struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	PublicKey string `json:"public_key"`
	AddedAt   int64  `json:"added_at"`
}

// ServiceRecord is a service endpoint attached to a device record.
type ServiceRecord struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Endpoint string `json:"endpoint"`
	AddedAt  int64  `json:"added_at"`
}

// DeviceRecord is a registered device identity. Controller is the only
// principal allowed to mutate the record.
type DeviceRecord struct {
	DID        string          `json:"did"`
	Controller string          `json:"controller"`
	Keys       []KeyRecord     `json:"keys"`
	Services   []ServiceRecord `json:"services"`
	CreatedAt  int64           `json:"created_at"`
	UpdatedAt  int64           `json:"updated_at"`
}

// CredentialRecord is a claim issued by one principal about a subject device.
type CredentialRecord struct {
	ID        string `json:"id"`
	Issuer    string `json:"issuer"`
	Subject   string `json:"subject"`
	Type      string `json:"type"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
	Revoked   bool   `json:"revoked"`
}

// DeviceRegistry stores device identity records with controller-checked
// mutation.
type DeviceRegistry interface {
	Register(ctx context.Context, controller, did string) (DeviceRecord, error)
	Get(ctx context.Context, did string) (DeviceRecord, error)
	List(ctx context.Context) ([]DeviceRecord, error)
	AddKey(ctx context.Context, caller, did string, key KeyRecord) (DeviceRecord, error)
	RemoveKey(ctx context.Context, caller, did, keyID string) (DeviceRecord, error)
	AddService(ctx context.Context, caller, did string, svc ServiceRecord) (DeviceRecord, error)
	RemoveService(ctx context.Context, caller, did, serviceID string) (DeviceRecord, error)
	Deregister(ctx context.Context, caller, did string) error
}

// CredentialRegistry stores credential records with issuer-checked
// revocation.
type CredentialRegistry interface {
	Issue(ctx context.Context, cred CredentialRecord) (CredentialRecord, error)
	Get(ctx context.Context, id string) (CredentialRecord, error)
	ListBySubject(ctx context.Context, subject string) ([]CredentialRecord, error)
	Revoke(ctx context.Context, caller, id string) (CredentialRecord, error)
}
