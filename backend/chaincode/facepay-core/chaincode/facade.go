package chaincode

import (
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// FacadeContract is the client-facing composition of the registry and the
// ledger: pre-flight fingerprint/account cross-checks, richer events, and
// read-only convenience wrappers. It adds no ledger semantics of its own;
// the payment path is the same executePayment the ledger runs, so the fee in
// the facade event is the value the ledger computed.
type FacadeContract struct {
	contractapi.Contract
}

// PayWithVerification cross-checks that recipientFingerprint resolves to
// expectedAccount before paying. A stale or mismatched pairing aborts before
// any funds move.
func (c *FacadeContract) PayWithVerification(ctx contractapi.TransactionContextInterface, recipientFingerprint, expectedAccount string, amount int64, ledgerAdmin string) (*PaymentReceipt, error) {
	stub := ctx.GetStub()

	cfg, err := loadLedger(stub, ledgerAdmin)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: ledger not initialized for %s", ErrNotFound, ledgerAdmin)
	}

	resolved, err := resolveFingerprint(stub, cfg.RegistryAdmin, recipientFingerprint)
	if err != nil {
		return nil, err
	}
	if resolved == "" || resolved != expectedAccount {
		return nil, fmt.Errorf("%w: fingerprint does not resolve to the expected account", ErrRecipientNotFound)
	}

	receipt, err := executePayment(ctx, recipientFingerprint, amount, ledgerAdmin)
	if err != nil {
		return nil, err
	}

	identity, err := loadIdentity(stub, cfg.RegistryAdmin, receipt.RecipientAccount)
	if err != nil {
		return nil, err
	}
	verified := identity != nil && identity.Verified

	event := &FacePaymentEvent{
		PaymentID:            receipt.PaymentID,
		Sender:               receipt.Sender,
		RecipientAccount:     receipt.RecipientAccount,
		RecipientFingerprint: receipt.RecipientFingerprint,
		RecipientVerified:    verified,
		Amount:               receipt.SourceAmount,
		FeeAmount:            receipt.FeeAmount,
		NetAmount:            receipt.SettlementAmount,
		Timestamp:            receipt.CreatedAt,
	}
	if err := emitJSON(stub, EventFacePaymentCompleted, event); err != nil {
		return nil, err
	}
	return receipt, nil
}

// PayWithConversion is the asset-conversion entry point. Conversion itself is
// not implemented: the target asset is validated against the supported set
// and the payment then settles in native units through the plain path with
// ConversionRequired left false.
func (c *FacadeContract) PayWithConversion(ctx contractapi.TransactionContextInterface, recipientFingerprint string, amount int64, targetAsset string, ledgerAdmin string) (*PaymentReceipt, error) {
	stub := ctx.GetStub()

	cfg, err := loadLedger(stub, ledgerAdmin)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: ledger not initialized for %s", ErrNotFound, ledgerAdmin)
	}
	if _, ok := cfg.Assets[targetAsset]; !ok {
		return nil, fmt.Errorf("%w: asset %s is not supported", ErrInvalidInput, targetAsset)
	}

	receipt, err := executePayment(ctx, recipientFingerprint, amount, ledgerAdmin)
	if err != nil {
		return nil, err
	}
	if err := emitJSON(stub, EventPaymentCompleted, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// LookupUserByFace returns the account a face hash resolves to, or "".
func (c *FacadeContract) LookupUserByFace(ctx contractapi.TransactionContextInterface, registryAdmin, faceHash string) (string, error) {
	return resolveFingerprint(ctx.GetStub(), registryAdmin, faceHash)
}

// UserExistsByFaceHash reports whether faceHash is registered.
func (c *FacadeContract) UserExistsByFaceHash(ctx contractapi.TransactionContextInterface, registryAdmin, faceHash string) (bool, error) {
	owner, err := resolveFingerprint(ctx.GetStub(), registryAdmin, faceHash)
	if err != nil {
		return false, err
	}
	return owner != "", nil
}

// UserExistsByAddress reports whether account holds an identity.
func (c *FacadeContract) UserExistsByAddress(ctx contractapi.TransactionContextInterface, registryAdmin, account string) (bool, error) {
	identity, err := loadIdentity(ctx.GetStub(), registryAdmin, account)
	if err != nil {
		return false, err
	}
	return identity != nil, nil
}

// GetUserVerificationStatus reports whether account's identity is verified.
// An absent identity reads as unverified.
func (c *FacadeContract) GetUserVerificationStatus(ctx contractapi.TransactionContextInterface, registryAdmin, account string) (bool, error) {
	identity, err := loadIdentity(ctx.GetStub(), registryAdmin, account)
	if err != nil {
		return false, err
	}
	return identity != nil && identity.Verified, nil
}

// VerifyFaceHashAndAddress reports whether faceHash resolves to account.
func (c *FacadeContract) VerifyFaceHashAndAddress(ctx contractapi.TransactionContextInterface, registryAdmin, faceHash, account string) (bool, error) {
	owner, err := resolveFingerprint(ctx.GetStub(), registryAdmin, faceHash)
	if err != nil {
		return false, err
	}
	return owner != "" && owner == account, nil
}
