package chaincode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdmin = "x509::CN=admin::CN=ca.facepay"

func setupRegistry(t *testing.T) (*world, *RegistryContract) {
	t.Helper()
	w := newWorld()
	registry := &RegistryContract{}
	require.NoError(t, registry.Initialize(w.as(testAdmin)))
	return w, registry
}

func TestInitializeTwiceFails(t *testing.T) {
	w, registry := setupRegistry(t)

	err := registry.Initialize(w.as(testAdmin))
	require.ErrorIs(t, err, ErrAlreadyInitialized)

	// A different admin gets its own namespace.
	require.NoError(t, registry.Initialize(w.as("other-admin")))
}

func TestRegisterAndLookup(t *testing.T) {
	w, registry := setupRegistry(t)

	require.NoError(t, registry.Register(w.as("alice"), "abc123", "cid-1", "FPT", "Alice", testAdmin))

	owner, err := registry.LookupByFingerprint(w.as("anyone"), testAdmin, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	exists, err := registry.ExistsByFingerprint(w.as("anyone"), testAdmin, "abc123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = registry.ExistsByOwner(w.as("anyone"), testAdmin, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	identity, err := registry.GetIdentity(w.as("anyone"), testAdmin, "alice")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "alice", identity.OwnerAccount)
	assert.Equal(t, "abc123", identity.FaceFingerprint)
	assert.Equal(t, "cid-1", identity.BlobReference)
	assert.Equal(t, "Alice", identity.DisplayName)
	assert.False(t, identity.Verified)
	assert.Zero(t, identity.PaymentsReceived)
	assert.LessOrEqual(t, identity.CreatedAt, identity.UpdatedAt)

	stats, err := registry.RegistryStats(w.as("anyone"), testAdmin)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, uint64(1), stats.TotalIdentities)

	assert.Equal(t, EventRegistered, w.stub.eventName)
}

func TestRegisterEmptyFingerprint(t *testing.T) {
	w, registry := setupRegistry(t)

	err := registry.Register(w.as("alice"), "", "cid-1", "FPT", "Alice", testAdmin)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterUninitializedRegistry(t *testing.T) {
	w := newWorld()
	registry := &RegistryContract{}

	err := registry.Register(w.as("alice"), "abc123", "cid-1", "FPT", "Alice", testAdmin)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFingerprintUniqueness(t *testing.T) {
	w, registry := setupRegistry(t)

	require.NoError(t, registry.Register(w.as("alice"), "abc123", "cid-1", "FPT", "Alice", testAdmin))

	before := w.stub.snapshot()
	err := registry.Register(w.as("bob"), "abc123", "cid-2", "FPT", "Bob", testAdmin)
	require.ErrorIs(t, err, ErrDuplicateFingerprint)
	assert.Equal(t, before, w.stub.snapshot())

	// Still exactly one identity resolving from the fingerprint.
	owner, err := registry.LookupByFingerprint(w.as("anyone"), testAdmin, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
}

func TestOwnerUniqueness(t *testing.T) {
	w, registry := setupRegistry(t)

	require.NoError(t, registry.Register(w.as("alice"), "abc123", "cid-1", "FPT", "Alice", testAdmin))

	err := registry.Register(w.as("alice"), "def456", "cid-2", "FPT", "Alice Again", testAdmin)
	require.ErrorIs(t, err, ErrDuplicateOwner)

	stats, err := registry.RegistryStats(w.as("anyone"), testAdmin)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.TotalIdentities)
}

func TestUpdatePreferences(t *testing.T) {
	w, registry := setupRegistry(t)

	require.NoError(t, registry.Register(w.as("alice"), "abc123", "cid-1", "FPT", "Alice", testAdmin))

	w.stub.now += 60
	require.NoError(t, registry.UpdatePreferences(w.as("alice"), "USDC", "Alice P.", testAdmin))

	identity, err := registry.GetIdentity(w.as("anyone"), testAdmin, "alice")
	require.NoError(t, err)
	assert.Equal(t, "USDC", identity.PreferredAsset)
	assert.Equal(t, "Alice P.", identity.DisplayName)
	assert.Greater(t, identity.UpdatedAt, identity.CreatedAt)
	assert.Equal(t, EventPreferencesUpdated, w.stub.eventName)
}

func TestUpdatePreferencesUnregistered(t *testing.T) {
	w, registry := setupRegistry(t)

	err := registry.UpdatePreferences(w.as("nobody"), "FPT", "Name", testAdmin)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetVerified(t *testing.T) {
	w, registry := setupRegistry(t)

	require.NoError(t, registry.Register(w.as("alice"), "abc123", "cid-1", "FPT", "Alice", testAdmin))

	require.NoError(t, registry.SetVerified(w.as(testAdmin), "alice", true, testAdmin))
	verified, err := registry.GetIdentity(w.as("anyone"), testAdmin, "alice")
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Equal(t, EventVerificationChanged, w.stub.eventName)

	var payload Identity
	require.NoError(t, json.Unmarshal(w.stub.eventPayload, &payload))
	assert.True(t, payload.Verified)

	// The flag is a plain toggle, flippable both ways.
	require.NoError(t, registry.SetVerified(w.as(testAdmin), "alice", false, testAdmin))
	unverified, err := registry.GetIdentity(w.as("anyone"), testAdmin, "alice")
	require.NoError(t, err)
	assert.False(t, unverified.Verified)
}

func TestSetVerifiedUnauthorized(t *testing.T) {
	w, registry := setupRegistry(t)

	require.NoError(t, registry.Register(w.as("alice"), "abc123", "cid-1", "FPT", "Alice", testAdmin))

	err := registry.SetVerified(w.as("mallory"), "alice", true, testAdmin)
	require.ErrorIs(t, err, ErrUnauthorized)

	err = registry.SetVerified(w.as(testAdmin), "nobody", true, testAdmin)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReadsOnAbsentRegistry(t *testing.T) {
	w := newWorld()
	registry := &RegistryContract{}

	owner, err := registry.LookupByFingerprint(w.as("anyone"), "ghost-admin", "abc123")
	require.NoError(t, err)
	assert.Empty(t, owner)

	exists, err := registry.ExistsByFingerprint(w.as("anyone"), "ghost-admin", "abc123")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = registry.ExistsByOwner(w.as("anyone"), "ghost-admin", "alice")
	require.NoError(t, err)
	assert.False(t, exists)

	stats, err := registry.RegistryStats(w.as("anyone"), "ghost-admin")
	require.NoError(t, err)
	assert.Nil(t, stats)
}
