package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"testing"
	"time"
)

// Config for E2E tests - assumes services are running locally, with the
// wallet identities below enrolled in the services' wallet directory.
const (
	RegistryServiceURL = "http://localhost:8082"
	PaymentsServiceURL = "http://localhost:8083"

	aliceWallet = "alice"
	bobWallet   = "bob"
)

func TestFacePaymentFlow(t *testing.T) {
	if os.Getenv("E2E") == "" {
		t.Skip("Set E2E=1 with the services running to enable this test")
	}

	// 1. Register Alice and Bob, each signing with their own wallet
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	registerFace(t, "alice", aliceWallet, randomDescriptor(rng))

	bobDescriptor := randomDescriptor(rng)
	bobFingerprint := registerFace(t, "bob", bobWallet, bobDescriptor)

	// 2. Match Bob's descriptor back to his fingerprint
	matched := matchFace(t, bobDescriptor)
	if matched != bobFingerprint {
		t.Errorf("Match returned %s, want %s", matched, bobFingerprint)
	}

	// 3. Alice pays Bob by fingerprint, signing with her wallet.
	// Assumes alice has funds (issued via the admin API or the
	// facepay-admin CLI beforehand).
	payByFace(t, aliceWallet, bobFingerprint, 1_000_000)

	// 4. Payment shows up in history
	resp, err := http.Get(PaymentsServiceURL + "/payments/history")
	if err != nil {
		t.Fatalf("Failed to fetch history: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("History failed with status: %d", resp.StatusCode)
	}
	var history []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("Failed to decode history: %v", err)
	}
	found := false
	for _, p := range history {
		if p["recipient_fingerprint"] == bobFingerprint {
			found = true
		}
	}
	if !found {
		t.Errorf("Payment to %s not found in history", bobFingerprint)
	}
}

func randomDescriptor(rng *rand.Rand) []float64 {
	d := make([]float64, 128)
	for i := range d {
		d[i] = rng.Float64()*2 - 1
	}
	return d
}

func registerFace(t *testing.T, name, wallet string, descriptor []float64) string {
	payload := map[string]interface{}{
		"wallet_id":       wallet,
		"descriptor":      descriptor,
		"display_name":    fmt.Sprintf("%s-%d", name, time.Now().Unix()),
		"preferred_asset": "FPT",
	}
	body, _ := json.Marshal(payload)
	resp, err := http.Post(RegistryServiceURL+"/faces/register", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("Failed to register %s: %v", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Register %s failed with status: %d", name, resp.StatusCode)
	}
	var out struct {
		Fingerprint string `json:"fingerprint"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode register response: %v", err)
	}
	return out.Fingerprint
}

func matchFace(t *testing.T, descriptor []float64) string {
	payload := map[string]interface{}{"descriptor": descriptor}
	body, _ := json.Marshal(payload)
	resp, err := http.Post(RegistryServiceURL+"/faces/match", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("Failed to match face: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Match failed with status: %d", resp.StatusCode)
	}
	var out struct {
		Fingerprint string `json:"fingerprint"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode match response: %v", err)
	}
	return out.Fingerprint
}

func payByFace(t *testing.T, wallet, fingerprint string, amount int64) {
	payload := map[string]interface{}{
		"wallet_id":             wallet,
		"recipient_fingerprint": fingerprint,
		"amount":                amount,
	}
	body, _ := json.Marshal(payload)
	resp, err := http.Post(PaymentsServiceURL+"/payments/face", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("Failed to pay: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Payment failed with status: %d", resp.StatusCode)
	}
}
