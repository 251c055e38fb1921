package models

import "time"

type RegisterFaceRequest struct {
	WalletID       string    `json:"wallet_id"`
	Descriptor     []float64 `json:"descriptor"`
	DisplayName    string    `json:"display_name"`
	PreferredAsset string    `json:"preferred_asset"`
}

type RegisterFaceResponse struct {
	Fingerprint   string `json:"fingerprint"`
	BlobReference string `json:"blob_reference"`
	Status        string `json:"status"`
}

type LookupResponse struct {
	Fingerprint string `json:"fingerprint"`
	Account     string `json:"account"`
}

type ExistsResponse struct {
	Exists bool `json:"exists"`
}

type MatchRequest struct {
	Descriptor  []float64 `json:"descriptor"`
	MaxDistance float64   `json:"max_distance,omitempty"`
}

type MatchResponse struct {
	Fingerprint string  `json:"fingerprint"`
	Account     string  `json:"account"`
	Distance    float64 `json:"distance"`
}

type PreferencesRequest struct {
	WalletID       string `json:"wallet_id"`
	PreferredAsset string `json:"preferred_asset"`
	DisplayName    string `json:"display_name"`
}

type VerifyRequest struct {
	Owner    string `json:"owner"`
	Verified bool   `json:"verified"`
}

// IdentityRow is the local mirror of a registration, kept for the match
// endpoint and operator listings. The chain remains the source of truth.
type IdentityRow struct {
	Fingerprint    string    `json:"fingerprint"`
	BlobCID        string    `json:"blob_cid"`
	DisplayName    string    `json:"display_name"`
	PreferredAsset string    `json:"preferred_asset"`
	CreatedAt      time.Time `json:"created_at"`
}
