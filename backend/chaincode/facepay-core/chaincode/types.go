package chaincode

// Identity is a registrant's on-chain profile, bound one-to-one to an owning
// account and a face fingerprint. Owner and fingerprint never change after
// registration.
type Identity struct {
	OwnerAccount     string `json:"owner_account"`
	FaceFingerprint  string `json:"face_fingerprint"`
	BlobReference    string `json:"blob_reference"`
	PreferredAsset   string `json:"preferred_asset"`
	DisplayName      string `json:"display_name"`
	CreatedAt        int64  `json:"created_at"`
	UpdatedAt        int64  `json:"updated_at"`
	Verified         bool   `json:"verified"`
	PaymentsReceived uint64 `json:"payments_received"`
}

// RegistryIndex is the per-admin registry singleton. It only ever grows.
type RegistryIndex struct {
	Admin           string `json:"admin"`
	TotalIdentities uint64 `json:"total_identities"`
	CreatedAt       int64  `json:"created_at"`
}

// LedgerConfig is the per-admin payment ledger singleton.
// Assets maps a supported settlement asset symbol to its minimum payment
// amount in base units.
type LedgerConfig struct {
	Admin         string           `json:"admin"`
	RegistryAdmin string           `json:"registry_admin"`
	FeeRateBps    int64            `json:"fee_rate_bps"`
	TotalPayments uint64           `json:"total_payments"`
	TotalVolume   int64            `json:"total_volume"`
	NextPaymentID uint64           `json:"next_payment_id"`
	Assets        map[string]int64 `json:"assets"`
}

// PaymentReceipt is the immutable record of one payment, stored under the
// sender's namespace. PaymentID is never reused.
type PaymentReceipt struct {
	PaymentID            uint64 `json:"payment_id"`
	Sender               string `json:"sender"`
	RecipientFingerprint string `json:"recipient_fingerprint"`
	RecipientAccount     string `json:"recipient_account"`
	SourceAsset          string `json:"source_asset"`
	SourceAmount         int64  `json:"source_amount"`
	SettlementAsset      string `json:"settlement_asset"`
	SettlementAmount     int64  `json:"settlement_amount"`
	FeeAmount            int64  `json:"fee_amount"`
	ConversionRequired   bool   `json:"conversion_required"`
	Status               string `json:"status"`
	CreatedAt            int64  `json:"created_at"`
}

// SystemTotals is the read-only ledger statistics view.
type SystemTotals struct {
	TotalPayments uint64 `json:"total_payments"`
	TotalVolume   int64  `json:"total_volume"`
	FeeRateBps    int64  `json:"fee_rate_bps"`
}

// FacePaymentEvent is the enriched event emitted by the facade payment path.
// FeeAmount is the value the ledger computed, passed through unchanged.
type FacePaymentEvent struct {
	PaymentID            uint64 `json:"payment_id"`
	Sender               string `json:"sender"`
	RecipientAccount     string `json:"recipient_account"`
	RecipientFingerprint string `json:"recipient_fingerprint"`
	RecipientVerified    bool   `json:"recipient_verified"`
	Amount               int64  `json:"amount"`
	FeeAmount            int64  `json:"fee_amount"`
	NetAmount            int64  `json:"net_amount"`
	Timestamp            int64  `json:"timestamp"`
}

// IssueEvent records an admin mint of native units.
type IssueEvent struct {
	Account   string `json:"account"`
	Amount    int64  `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

const (
	// NativeAsset is the settlement asset seeded at ledger initialization.
	// Amounts are int64 base units with 8 implied decimals.
	NativeAsset = "FPT"

	// DefaultMinimumPayment is 0.01 native units.
	DefaultMinimumPayment = int64(1_000_000)

	DefaultFeeRateBps = int64(30)
	MaxFeeRateBps     = int64(1000)
	bpsDenominator    = int64(10_000)

	// StatusCompleted is the only receipt status: a failed payment aborts
	// the transaction and persists nothing.
	StatusCompleted = "Completed"
)

// Composite key object types for world state entries.
const (
	registryKeyType    = "REGISTRY"
	fingerprintKeyType = "FP"
	identityKeyType    = "IDENTITY"
	ledgerKeyType      = "LEDGER"
	balanceKeyType     = "BALANCE"
	receiptKeyType     = "RECEIPT"
)

// Chaincode event names. Fabric delivers at most one event per committed
// transaction, so the initiation fields ride on the completion payload.
const (
	EventRegistered           = "Registered"
	EventPreferencesUpdated   = "PreferencesUpdated"
	EventVerificationChanged  = "VerificationChanged"
	EventPaymentCompleted     = "PaymentCompleted"
	EventFacePaymentCompleted = "FacePaymentCompleted"
	EventFundsIssued          = "FundsIssued"
)
