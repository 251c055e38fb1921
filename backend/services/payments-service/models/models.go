package models

import "time"

type PaymentRequest struct {
	WalletID             string `json:"wallet_id"`
	RecipientFingerprint string `json:"recipient_fingerprint"`
	ExpectedAccount      string `json:"expected_account,omitempty"`
	Amount               int64  `json:"amount"`
}

// Receipt mirrors the chaincode PaymentReceipt JSON.
type Receipt struct {
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

// Payment is the local mirror row for one submitted payment.
type Payment struct {
	Ref                  string    `json:"ref"`
	PaymentID            *uint64   `json:"payment_id,omitempty"`
	RecipientFingerprint string    `json:"recipient_fingerprint"`
	RecipientAccount     string    `json:"recipient_account,omitempty"`
	Amount               int64     `json:"amount"`
	FeeAmount            int64     `json:"fee_amount"`
	Status               string    `json:"status"`
	ErrorCode            string    `json:"error_code,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

type FeeRateRequest struct {
	FeeRateBps int64 `json:"fee_rate_bps"`
}

type AssetRequest struct {
	Symbol  string `json:"symbol"`
	Minimum int64  `json:"minimum"`
}

type IssueRequest struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}
