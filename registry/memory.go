package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryDevices is an in-process DeviceRegistry.
type MemoryDevices struct {
	mu      sync.RWMutex
	devices map[string]DeviceRecord
	clock   func() time.Time
}

// NewMemoryDevices creates an empty device registry. A nil clock defaults to
// time.Now.
func NewMemoryDevices(clock func() time.Time) *MemoryDevices {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryDevices{
		devices: make(map[string]DeviceRecord),
		clock:   clock,
	}
}

// Register creates a device record controlled by controller.
func (r *MemoryDevices) Register(ctx context.Context, controller, did string) (DeviceRecord, error) {
	if err := ctx.Err(); err != nil {
		return DeviceRecord{}, err
	}
	if strings.TrimSpace(controller) == "" || strings.TrimSpace(did) == "" {
		return DeviceRecord{}, fmt.Errorf("controller and did are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[did]; exists {
		return DeviceRecord{}, ErrAlreadyRegistered
	}

	now := r.clock().UnixMilli()
	record := DeviceRecord{
		DID:        did,
		Controller: controller,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.devices[did] = record
	return cloneDevice(record), nil
}

// Get returns a copy of a device record.
func (r *MemoryDevices) Get(ctx context.Context, did string) (DeviceRecord, error) {
	if err := ctx.Err(); err != nil {
		return DeviceRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.devices[did]
	if !exists {
		return DeviceRecord{}, ErrNotFound
	}
	return cloneDevice(record), nil
}

// List returns copies of all device records, in unspecified order.
func (r *MemoryDevices) List(ctx context.Context) ([]DeviceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DeviceRecord, 0, len(r.devices))
	for _, record := range r.devices {
		out = append(out, cloneDevice(record))
	}
	return out, nil
}

// AddKey attaches a verification key to a device record.
func (r *MemoryDevices) AddKey(ctx context.Context, caller, did string, key KeyRecord) (DeviceRecord, error) {
	if strings.TrimSpace(key.ID) == "" {
		return DeviceRecord{}, fmt.Errorf("key id is required")
	}
	return r.mutate(ctx, caller, did, func(record *DeviceRecord, now int64) error {
		for _, existing := range record.Keys {
			if existing.ID == key.ID {
				return fmt.Errorf("key %q already attached", key.ID)
			}
		}
		key.AddedAt = now
		record.Keys = append(record.Keys, key)
		return nil
	})
}

// RemoveKey detaches a verification key from a device record.
func (r *MemoryDevices) RemoveKey(ctx context.Context, caller, did, keyID string) (DeviceRecord, error) {
	return r.mutate(ctx, caller, did, func(record *DeviceRecord, _ int64) error {
		idx := slices.IndexFunc(record.Keys, func(k KeyRecord) bool { return k.ID == keyID })
		if idx < 0 {
			return ErrNotFound
		}
		record.Keys = slices.Delete(record.Keys, idx, idx+1)
		return nil
	})
}

// AddService attaches a service endpoint to a device record.
func (r *MemoryDevices) AddService(ctx context.Context, caller, did string, svc ServiceRecord) (DeviceRecord, error) {
	if strings.TrimSpace(svc.ID) == "" {
		return DeviceRecord{}, fmt.Errorf("service id is required")
	}
	return r.mutate(ctx, caller, did, func(record *DeviceRecord, now int64) error {
		for _, existing := range record.Services {
			if existing.ID == svc.ID {
				return fmt.Errorf("service %q already attached", svc.ID)
			}
		}
		svc.AddedAt = now
		record.Services = append(record.Services, svc)
		return nil
	})
}

// RemoveService detaches a service endpoint from a device record.
func (r *MemoryDevices) RemoveService(ctx context.Context, caller, did, serviceID string) (DeviceRecord, error) {
	return r.mutate(ctx, caller, did, func(record *DeviceRecord, _ int64) error {
		idx := slices.IndexFunc(record.Services, func(s ServiceRecord) bool { return s.ID == serviceID })
		if idx < 0 {
			return ErrNotFound
		}
		record.Services = slices.Delete(record.Services, idx, idx+1)
		return nil
	})
}

// Deregister removes a device record entirely.
func (r *MemoryDevices) Deregister(ctx context.Context, caller, did string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.devices[did]
	if !exists {
		return ErrNotFound
	}
	if record.Controller != caller {
		return ErrNotController
	}
	delete(r.devices, did)
	return nil
}

func (r *MemoryDevices) mutate(ctx context.Context, caller, did string, fn func(record *DeviceRecord, now int64) error) (DeviceRecord, error) {
	if err := ctx.Err(); err != nil {
		return DeviceRecord{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.devices[did]
	if !exists {
		return DeviceRecord{}, ErrNotFound
	}
	if record.Controller != caller {
		return DeviceRecord{}, ErrNotController
	}

	work := cloneDevice(record)
	now := r.clock().UnixMilli()
	if err := fn(&work, now); err != nil {
		return DeviceRecord{}, err
	}
	work.UpdatedAt = now
	r.devices[did] = work
	return cloneDevice(work), nil
}

func cloneDevice(record DeviceRecord) DeviceRecord {
	record.Keys = slices.Clone(record.Keys)
	record.Services = slices.Clone(record.Services)
	return record
}

// MemoryCredentials is an in-process CredentialRegistry.
type MemoryCredentials struct {
	mu          sync.RWMutex
	credentials map[string]CredentialRecord
	clock       func() time.Time
}

// NewMemoryCredentials creates an empty credential registry. A nil clock
// defaults to time.Now.
func NewMemoryCredentials(clock func() time.Time) *MemoryCredentials {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCredentials{
		credentials: make(map[string]CredentialRecord),
		clock:       clock,
	}
}

// Issue stores a new credential record.
func (r *MemoryCredentials) Issue(ctx context.Context, cred CredentialRecord) (CredentialRecord, error) {
	if err := ctx.Err(); err != nil {
		return CredentialRecord{}, err
	}
	if strings.TrimSpace(cred.ID) == "" || strings.TrimSpace(cred.Issuer) == "" || strings.TrimSpace(cred.Subject) == "" {
		return CredentialRecord{}, fmt.Errorf("credential id, issuer, and subject are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.credentials[cred.ID]; exists {
		return CredentialRecord{}, ErrAlreadyRegistered
	}

	cred.IssuedAt = r.clock().UnixMilli()
	cred.Revoked = false
	r.credentials[cred.ID] = cred
	return cred, nil
}

// Get returns a credential record by ID.
func (r *MemoryCredentials) Get(ctx context.Context, id string) (CredentialRecord, error) {
	if err := ctx.Err(); err != nil {
		return CredentialRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, exists := r.credentials[id]
	if !exists {
		return CredentialRecord{}, ErrNotFound
	}
	return cred, nil
}

// ListBySubject returns all credentials issued about a subject.
func (r *MemoryCredentials) ListBySubject(ctx context.Context, subject string) ([]CredentialRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []CredentialRecord
	for _, cred := range r.credentials {
		if cred.Subject == subject {
			out = append(out, cred)
		}
	}
	return out, nil
}

// Revoke marks a credential revoked. Only the issuer may revoke; revoking an
// already revoked credential fails with ErrRevoked.
func (r *MemoryCredentials) Revoke(ctx context.Context, caller, id string) (CredentialRecord, error) {
	if err := ctx.Err(); err != nil {
		return CredentialRecord{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cred, exists := r.credentials[id]
	if !exists {
		return CredentialRecord{}, ErrNotFound
	}
	if cred.Issuer != caller {
		return CredentialRecord{}, ErrNotController
	}
	if cred.Revoked {
		return CredentialRecord{}, ErrRevoked
	}

	cred.Revoked = true
	r.credentials[id] = cred
	return cred, nil
}
