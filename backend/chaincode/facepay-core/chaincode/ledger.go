package chaincode

import (
	"fmt"
	"math"
	"sort"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// LedgerContract validates and executes face-addressed value transfers with a
// protocol fee split, and persists an auditable receipt per payment. Balances
// are plain world-state entries; all mutations of one payment land in a
// single Fabric transaction and commit or abort together.
type LedgerContract struct {
	contractapi.Contract
}

// Initialize creates the ledger configuration for the calling identity,
// seeding the native settlement asset with the default minimum. registryAdmin
// selects the registry namespace used to resolve recipients; an empty value
// defaults to the caller's own namespace.
func (c *LedgerContract) Initialize(ctx contractapi.TransactionContextInterface, registryAdmin string) error {
	stub := ctx.GetStub()

	admin, err := callerID(ctx)
	if err != nil {
		return err
	}

	existing, err := loadLedger(stub, admin)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: ledger already initialized for %s", ErrAlreadyInitialized, admin)
	}

	if registryAdmin == "" {
		registryAdmin = admin
	}

	cfg := &LedgerConfig{
		Admin:         admin,
		RegistryAdmin: registryAdmin,
		FeeRateBps:    DefaultFeeRateBps,
		NextPaymentID: 1,
		Assets:        map[string]int64{NativeAsset: DefaultMinimumPayment},
	}
	return saveLedger(stub, cfg)
}

// Issue mints native units to an account. Only the ledger admin can call
// this; it exists so demo accounts can be funded.
func (c *LedgerContract) Issue(ctx contractapi.TransactionContextInterface, account string, amount int64, ledgerAdmin string) error {
	stub := ctx.GetStub()

	caller, err := callerID(ctx)
	if err != nil {
		return err
	}

	cfg, err := loadLedger(stub, ledgerAdmin)
	if err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("%w: ledger not initialized for %s", ErrNotFound, ledgerAdmin)
	}
	if cfg.Admin != caller {
		return fmt.Errorf("%w: caller is not the ledger admin", ErrUnauthorized)
	}
	if account == "" || amount <= 0 {
		return fmt.Errorf("%w: account and positive amount required", ErrInvalidInput)
	}

	balance, err := loadBalance(stub, ledgerAdmin, account)
	if err != nil {
		return err
	}
	if err := saveBalance(stub, ledgerAdmin, account, balance+amount); err != nil {
		return err
	}

	now, err := txSeconds(ctx)
	if err != nil {
		return err
	}
	return emitJSON(stub, EventFundsIssued, &IssueEvent{Account: account, Amount: amount, Timestamp: now})
}

// PayByFingerprint transfers amount from the calling account to the account
// the recipient fingerprint resolves to, deducting the protocol fee to the
// ledger admin. Either every balance mutation and the receipt commit, or the
// whole call aborts with no state change.
func (c *LedgerContract) PayByFingerprint(ctx contractapi.TransactionContextInterface, recipientFingerprint string, amount int64, ledgerAdmin string) (*PaymentReceipt, error) {
	receipt, err := executePayment(ctx, recipientFingerprint, amount, ledgerAdmin)
	if err != nil {
		return nil, err
	}
	if err := emitJSON(ctx.GetStub(), EventPaymentCompleted, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// executePayment runs the validation chain and the fee-split transfer, and
// persists the receipt. Shared between the plain ledger entry point and the
// facade so the fee is computed exactly once.
func executePayment(ctx contractapi.TransactionContextInterface, recipientFingerprint string, amount int64, ledgerAdmin string) (*PaymentReceipt, error) {
	stub := ctx.GetStub()

	sender, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := loadLedger(stub, ledgerAdmin)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: ledger not initialized for %s", ErrNotFound, ledgerAdmin)
	}

	minimum := cfg.Assets[NativeAsset]
	if amount < minimum {
		return nil, fmt.Errorf("%w: amount %d is below the minimum %d", ErrBelowMinimum, amount, minimum)
	}

	recipient, err := resolveFingerprint(stub, cfg.RegistryAdmin, recipientFingerprint)
	if err != nil {
		return nil, err
	}
	if recipient == "" {
		return nil, fmt.Errorf("%w: fingerprint is not registered", ErrRecipientNotFound)
	}
	identity, err := loadIdentity(stub, cfg.RegistryAdmin, recipient)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, fmt.Errorf("%w: resolved account %s has no identity", ErrRecipientNotFound, recipient)
	}

	if recipient == sender {
		return nil, fmt.Errorf("%w: recipient resolves to the sender's own account", ErrSelfPayment)
	}

	senderBalance, err := loadBalance(stub, ledgerAdmin, sender)
	if err != nil {
		return nil, err
	}
	if senderBalance < amount {
		return nil, fmt.Errorf("%w: balance %d is less than amount %d", ErrInsufficientFunds, senderBalance, amount)
	}

	// The fee multiplication must not wrap; amounts past this bound are far
	// beyond any issuable balance anyway.
	if cfg.FeeRateBps > 0 && amount > math.MaxInt64/cfg.FeeRateBps {
		return nil, fmt.Errorf("%w: amount %d exceeds the maximum payable amount", ErrInvalidInput, amount)
	}

	feeAmount := amount * cfg.FeeRateBps / bpsDenominator
	netAmount := amount - feeAmount

	// Balance movements are accumulated per account: within one transaction
	// reads see committed state, not earlier writes, so when the fee
	// collector and the recipient alias the same account the credits must be
	// summed before a single write.
	deltas := map[string]int64{}
	deltas[sender] -= amount
	deltas[cfg.Admin] += feeAmount
	deltas[recipient] += netAmount

	accounts := make([]string, 0, len(deltas))
	for account := range deltas {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	for _, account := range accounts {
		balance, err := loadBalance(stub, ledgerAdmin, account)
		if err != nil {
			return nil, err
		}
		if err := saveBalance(stub, ledgerAdmin, account, balance+deltas[account]); err != nil {
			return nil, err
		}
	}

	now, err := txSeconds(ctx)
	if err != nil {
		return nil, err
	}

	paymentID := cfg.NextPaymentID
	cfg.NextPaymentID++
	cfg.TotalPayments++
	cfg.TotalVolume += amount
	if err := saveLedger(stub, cfg); err != nil {
		return nil, err
	}

	identity.PaymentsReceived++
	identity.UpdatedAt = now
	if err := saveIdentity(stub, cfg.RegistryAdmin, identity); err != nil {
		return nil, err
	}

	receipt := &PaymentReceipt{
		PaymentID:            paymentID,
		Sender:               sender,
		RecipientFingerprint: recipientFingerprint,
		RecipientAccount:     recipient,
		SourceAsset:          NativeAsset,
		SourceAmount:         amount,
		SettlementAsset:      NativeAsset,
		SettlementAmount:     netAmount,
		FeeAmount:            feeAmount,
		Status:               StatusCompleted,
		CreatedAt:            now,
	}
	key, err := receiptKey(stub, ledgerAdmin, sender, paymentID)
	if err != nil {
		return nil, err
	}
	if err := putJSON(stub, key, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// SetFeeRateBps adjusts the protocol fee. Rates above 10% are rejected.
func (c *LedgerContract) SetFeeRateBps(ctx contractapi.TransactionContextInterface, newRate int64, ledgerAdmin string) error {
	stub := ctx.GetStub()

	cfg, err := requireLedgerAdmin(ctx, ledgerAdmin)
	if err != nil {
		return err
	}
	if newRate < 0 || newRate > MaxFeeRateBps {
		return fmt.Errorf("%w: rate %d is outside [0, %d]", ErrInvalidFeeRate, newRate, MaxFeeRateBps)
	}

	cfg.FeeRateBps = newRate
	return saveLedger(stub, cfg)
}

// AddSupportedAsset adds or updates a settlement asset and its minimum
// payment amount.
func (c *LedgerContract) AddSupportedAsset(ctx contractapi.TransactionContextInterface, symbol string, minimum int64, ledgerAdmin string) error {
	stub := ctx.GetStub()

	cfg, err := requireLedgerAdmin(ctx, ledgerAdmin)
	if err != nil {
		return err
	}
	if symbol == "" || minimum <= 0 {
		return fmt.Errorf("%w: symbol and positive minimum required", ErrInvalidInput)
	}

	cfg.Assets[symbol] = minimum
	return saveLedger(stub, cfg)
}

// RemoveSupportedAsset removes a settlement asset from the supported set.
func (c *LedgerContract) RemoveSupportedAsset(ctx contractapi.TransactionContextInterface, symbol string, ledgerAdmin string) error {
	stub := ctx.GetStub()

	cfg, err := requireLedgerAdmin(ctx, ledgerAdmin)
	if err != nil {
		return err
	}
	if _, ok := cfg.Assets[symbol]; !ok {
		return fmt.Errorf("%w: asset %s is not supported", ErrNotFound, symbol)
	}

	delete(cfg.Assets, symbol)
	return saveLedger(stub, cfg)
}

func requireLedgerAdmin(ctx contractapi.TransactionContextInterface, ledgerAdmin string) (*LedgerConfig, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := loadLedger(ctx.GetStub(), ledgerAdmin)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: ledger not initialized for %s", ErrNotFound, ledgerAdmin)
	}
	if cfg.Admin != caller {
		return nil, fmt.Errorf("%w: caller is not the ledger admin", ErrUnauthorized)
	}
	return cfg, nil
}

// IsAssetSupported reports whether symbol is a supported settlement asset.
func (c *LedgerContract) IsAssetSupported(ctx contractapi.TransactionContextInterface, ledgerAdmin, symbol string) (bool, error) {
	cfg, err := loadLedger(ctx.GetStub(), ledgerAdmin)
	if err != nil || cfg == nil {
		return false, err
	}
	_, ok := cfg.Assets[symbol]
	return ok, nil
}

// MinimumForAsset returns the minimum payment amount for symbol, or 0 when
// the ledger or the asset is absent.
func (c *LedgerContract) MinimumForAsset(ctx contractapi.TransactionContextInterface, ledgerAdmin, symbol string) (int64, error) {
	cfg, err := loadLedger(ctx.GetStub(), ledgerAdmin)
	if err != nil || cfg == nil {
		return 0, err
	}
	return cfg.Assets[symbol], nil
}

// SystemTotals returns the ledger statistics, or nil when uninitialized.
func (c *LedgerContract) SystemTotals(ctx contractapi.TransactionContextInterface, ledgerAdmin string) (*SystemTotals, error) {
	cfg, err := loadLedger(ctx.GetStub(), ledgerAdmin)
	if err != nil || cfg == nil {
		return nil, err
	}
	return &SystemTotals{
		TotalPayments: cfg.TotalPayments,
		TotalVolume:   cfg.TotalVolume,
		FeeRateBps:    cfg.FeeRateBps,
	}, nil
}

// GetBalance returns account's balance in base units.
func (c *LedgerContract) GetBalance(ctx contractapi.TransactionContextInterface, ledgerAdmin, account string) (int64, error) {
	return loadBalance(ctx.GetStub(), ledgerAdmin, account)
}

// GetReceipt returns one of sender's receipts, or nil when absent.
func (c *LedgerContract) GetReceipt(ctx contractapi.TransactionContextInterface, ledgerAdmin, sender string, paymentID uint64) (*PaymentReceipt, error) {
	key, err := receiptKey(ctx.GetStub(), ledgerAdmin, sender, paymentID)
	if err != nil {
		return nil, err
	}
	var receipt PaymentReceipt
	found, err := getJSON(ctx.GetStub(), key, &receipt)
	if err != nil || !found {
		return nil, err
	}
	return &receipt, nil
}
