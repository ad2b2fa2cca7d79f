package registry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fixedClock(millis int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(millis) }
}

func TestRegisterAndGet(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryDevices(fixedClock(1000))

	record, err := r.Register(ctx, "owner-1", "did:suibotics:rover-1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if record.Controller != "owner-1" || record.CreatedAt != 1000 {
		t.Errorf("Unexpected record: %+v", record)
	}

	got, err := r.Get(ctx, "did:suibotics:rover-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.DID != "did:suibotics:rover-1" {
		t.Errorf("Unexpected DID: %s", got.DID)
	}

	if _, err := r.Register(ctx, "owner-2", "did:suibotics:rover-1"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("Expected ErrAlreadyRegistered, got %v", err)
	}
	if _, err := r.Get(ctx, "did:suibotics:missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestKeyLifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryDevices(fixedClock(1000))

	if _, err := r.Register(ctx, "owner-1", "did:suibotics:rover-1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	key := KeyRecord{ID: "key-1", Type: "Ed25519VerificationKey2020", PublicKey: "zAbc"}
	record, err := r.AddKey(ctx, "owner-1", "did:suibotics:rover-1", key)
	if err != nil {
		t.Fatalf("AddKey failed: %v", err)
	}
	if len(record.Keys) != 1 || record.Keys[0].AddedAt != 1000 {
		t.Errorf("Unexpected keys: %+v", record.Keys)
	}

	if _, err := r.AddKey(ctx, "owner-1", "did:suibotics:rover-1", key); err == nil {
		t.Error("Expected duplicate key id to fail")
	}

	record, err = r.RemoveKey(ctx, "owner-1", "did:suibotics:rover-1", "key-1")
	if err != nil {
		t.Fatalf("RemoveKey failed: %v", err)
	}
	if len(record.Keys) != 0 {
		t.Errorf("Expected no keys, got %+v", record.Keys)
	}

	if _, err := r.RemoveKey(ctx, "owner-1", "did:suibotics:rover-1", "key-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryDevices(fixedClock(1000))

	if _, err := r.Register(ctx, "owner-1", "did:suibotics:rover-1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	svc := ServiceRecord{ID: "svc-1", Type: "TelemetryStream", Endpoint: "wss://rover-1.local/ws"}
	record, err := r.AddService(ctx, "owner-1", "did:suibotics:rover-1", svc)
	if err != nil {
		t.Fatalf("AddService failed: %v", err)
	}
	if len(record.Services) != 1 || record.Services[0].Endpoint != "wss://rover-1.local/ws" {
		t.Errorf("Unexpected services: %+v", record.Services)
	}

	record, err = r.RemoveService(ctx, "owner-1", "did:suibotics:rover-1", "svc-1")
	if err != nil {
		t.Fatalf("RemoveService failed: %v", err)
	}
	if len(record.Services) != 0 {
		t.Errorf("Expected no services, got %+v", record.Services)
	}
}

func TestControllerEnforcement(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryDevices(fixedClock(1000))

	if _, err := r.Register(ctx, "owner-1", "did:suibotics:rover-1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	key := KeyRecord{ID: "key-1", Type: "Ed25519VerificationKey2020", PublicKey: "zAbc"}
	if _, err := r.AddKey(ctx, "intruder", "did:suibotics:rover-1", key); !errors.Is(err, ErrNotController) {
		t.Errorf("Expected ErrNotController on AddKey, got %v", err)
	}
	if err := r.Deregister(ctx, "intruder", "did:suibotics:rover-1"); !errors.Is(err, ErrNotController) {
		t.Errorf("Expected ErrNotController on Deregister, got %v", err)
	}

	if err := r.Deregister(ctx, "owner-1", "did:suibotics:rover-1"); err != nil {
		t.Fatalf("Deregister failed: %v", err)
	}
	if _, err := r.Get(ctx, "did:suibotics:rover-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after deregister, got %v", err)
	}
}

func TestFailedMutationLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryDevices(fixedClock(1000))

	if _, err := r.Register(ctx, "owner-1", "did:suibotics:rover-1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	key := KeyRecord{ID: "key-1", Type: "Ed25519VerificationKey2020", PublicKey: "zAbc"}
	if _, err := r.AddKey(ctx, "owner-1", "did:suibotics:rover-1", key); err != nil {
		t.Fatalf("AddKey failed: %v", err)
	}

	if _, err := r.AddKey(ctx, "owner-1", "did:suibotics:rover-1", key); err == nil {
		t.Fatal("Expected duplicate key to fail")
	}

	got, _ := r.Get(ctx, "did:suibotics:rover-1")
	if len(got.Keys) != 1 {
		t.Errorf("Expected failed mutation to leave one key, got %d", len(got.Keys))
	}
}

func TestCredentialLifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryCredentials(fixedClock(2000))

	cred := CredentialRecord{
		ID:      "cred-1",
		Issuer:  "did:suibotics:fleet-op",
		Subject: "did:suibotics:rover-1",
		Type:    "OperatorAuthorization",
	}
	issued, err := r.Issue(ctx, cred)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if issued.IssuedAt != 2000 || issued.Revoked {
		t.Errorf("Unexpected issued record: %+v", issued)
	}

	if _, err := r.Issue(ctx, cred); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("Expected ErrAlreadyRegistered, got %v", err)
	}

	bySubject, err := r.ListBySubject(ctx, "did:suibotics:rover-1")
	if err != nil || len(bySubject) != 1 {
		t.Fatalf("ListBySubject: got %v, err %v", bySubject, err)
	}

	if _, err := r.Revoke(ctx, "did:suibotics:rover-1", "cred-1"); !errors.Is(err, ErrNotController) {
		t.Errorf("Expected ErrNotController for non-issuer revoke, got %v", err)
	}

	revoked, err := r.Revoke(ctx, "did:suibotics:fleet-op", "cred-1")
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if !revoked.Revoked {
		t.Error("Expected credential marked revoked")
	}

	if _, err := r.Revoke(ctx, "did:suibotics:fleet-op", "cred-1"); !errors.Is(err, ErrRevoked) {
		t.Errorf("Expected ErrRevoked on second revoke, got %v", err)
	}
}
