package chaincode

import (
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// RegistryContract maintains the face fingerprint -> account mapping and the
// registrants' profiles. Each deployment is namespaced by the admin identity
// that called Initialize; all other operations take that admin as a
// parameter to select the namespace.
type RegistryContract struct {
	contractapi.Contract
}

// Initialize creates the registry index for the calling identity. The caller
// becomes the registry admin: the only identity allowed to flip verification
// flags in this namespace.
func (c *RegistryContract) Initialize(ctx contractapi.TransactionContextInterface) error {
	stub := ctx.GetStub()

	admin, err := callerID(ctx)
	if err != nil {
		return err
	}

	existing, err := loadRegistry(stub, admin)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: registry already initialized for %s", ErrAlreadyInitialized, admin)
	}

	now, err := txSeconds(ctx)
	if err != nil {
		return err
	}

	key, err := registryKey(stub, admin)
	if err != nil {
		return err
	}
	return putJSON(stub, key, &RegistryIndex{Admin: admin, CreatedAt: now})
}

// Register binds the caller's account to a face fingerprint and persists the
// profile. This is the only creation path; neither the fingerprint nor the
// owner can be changed afterwards.
func (c *RegistryContract) Register(ctx contractapi.TransactionContextInterface, fingerprint, blobReference, preferredAsset, displayName, registryAdmin string) error {
	stub := ctx.GetStub()

	if fingerprint == "" {
		return fmt.Errorf("%w: fingerprint must not be empty", ErrInvalidInput)
	}

	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	idx, err := loadRegistry(stub, registryAdmin)
	if err != nil {
		return err
	}
	if idx == nil {
		return fmt.Errorf("%w: registry not initialized for %s", ErrNotFound, registryAdmin)
	}

	owner, err := resolveFingerprint(stub, registryAdmin, fingerprint)
	if err != nil {
		return err
	}
	if owner != "" {
		return fmt.Errorf("%w: fingerprint already registered", ErrDuplicateFingerprint)
	}

	existing, err := loadIdentity(stub, registryAdmin, caller)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: account %s already owns an identity", ErrDuplicateOwner, caller)
	}

	now, err := txSeconds(ctx)
	if err != nil {
		return err
	}

	if preferredAsset == "" {
		preferredAsset = NativeAsset
	}

	identity := &Identity{
		OwnerAccount:    caller,
		FaceFingerprint: fingerprint,
		BlobReference:   blobReference,
		PreferredAsset:  preferredAsset,
		DisplayName:     displayName,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	fpKey, err := fingerprintKey(stub, registryAdmin, fingerprint)
	if err != nil {
		return err
	}
	if err := stub.PutState(fpKey, []byte(caller)); err != nil {
		return fmt.Errorf("failed to write fingerprint index: %v", err)
	}
	if err := saveIdentity(stub, registryAdmin, identity); err != nil {
		return err
	}

	idx.TotalIdentities++
	regKey, err := registryKey(stub, registryAdmin)
	if err != nil {
		return err
	}
	if err := putJSON(stub, regKey, idx); err != nil {
		return err
	}

	return emitJSON(stub, EventRegistered, identity)
}

// UpdatePreferences changes the caller's settlement asset and display name.
func (c *RegistryContract) UpdatePreferences(ctx contractapi.TransactionContextInterface, preferredAsset, displayName, registryAdmin string) error {
	stub := ctx.GetStub()

	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	identity, err := loadIdentity(stub, registryAdmin, caller)
	if err != nil {
		return err
	}
	if identity == nil {
		return fmt.Errorf("%w: no identity registered for %s", ErrNotFound, caller)
	}

	now, err := txSeconds(ctx)
	if err != nil {
		return err
	}

	identity.PreferredAsset = preferredAsset
	identity.DisplayName = displayName
	identity.UpdatedAt = now

	if err := saveIdentity(stub, registryAdmin, identity); err != nil {
		return err
	}
	return emitJSON(stub, EventPreferencesUpdated, identity)
}

// SetVerified flips the verification flag on a registrant. Only the registry
// admin bound at Initialize time may call this; the flag may be flipped in
// either direction any number of times.
func (c *RegistryContract) SetVerified(ctx contractapi.TransactionContextInterface, targetOwner string, verified bool, registryAdmin string) error {
	stub := ctx.GetStub()

	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	idx, err := loadRegistry(stub, registryAdmin)
	if err != nil {
		return err
	}
	if idx == nil {
		return fmt.Errorf("%w: registry not initialized for %s", ErrNotFound, registryAdmin)
	}
	if idx.Admin != caller {
		return fmt.Errorf("%w: caller is not the registry admin", ErrUnauthorized)
	}

	identity, err := loadIdentity(stub, registryAdmin, targetOwner)
	if err != nil {
		return err
	}
	if identity == nil {
		return fmt.Errorf("%w: no identity registered for %s", ErrNotFound, targetOwner)
	}

	now, err := txSeconds(ctx)
	if err != nil {
		return err
	}

	identity.Verified = verified
	identity.UpdatedAt = now

	if err := saveIdentity(stub, registryAdmin, identity); err != nil {
		return err
	}
	return emitJSON(stub, EventVerificationChanged, identity)
}

// LookupByFingerprint returns the account indexed under fingerprint, or ""
// when the registry or the fingerprint is absent. Absence is a normal read
// outcome, not an error.
func (c *RegistryContract) LookupByFingerprint(ctx contractapi.TransactionContextInterface, registryAdmin, fingerprint string) (string, error) {
	return resolveFingerprint(ctx.GetStub(), registryAdmin, fingerprint)
}

// ExistsByFingerprint reports whether fingerprint is indexed.
func (c *RegistryContract) ExistsByFingerprint(ctx contractapi.TransactionContextInterface, registryAdmin, fingerprint string) (bool, error) {
	owner, err := resolveFingerprint(ctx.GetStub(), registryAdmin, fingerprint)
	if err != nil {
		return false, err
	}
	return owner != "", nil
}

// ExistsByOwner reports whether owner holds an identity.
func (c *RegistryContract) ExistsByOwner(ctx contractapi.TransactionContextInterface, registryAdmin, owner string) (bool, error) {
	identity, err := loadIdentity(ctx.GetStub(), registryAdmin, owner)
	if err != nil {
		return false, err
	}
	return identity != nil, nil
}

// GetIdentity returns owner's profile, or nil when absent.
func (c *RegistryContract) GetIdentity(ctx contractapi.TransactionContextInterface, registryAdmin, owner string) (*Identity, error) {
	return loadIdentity(ctx.GetStub(), registryAdmin, owner)
}

// RegistryStats returns the registry index record, or nil when absent.
func (c *RegistryContract) RegistryStats(ctx contractapi.TransactionContextInterface, registryAdmin string) (*RegistryIndex, error) {
	return loadRegistry(ctx.GetStub(), registryAdmin)
}
