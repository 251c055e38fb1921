package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"

	"github.com/passionate-dev7/facepay/backend/pkg/common"
	"github.com/passionate-dev7/facepay/backend/pkg/common/api"
	"github.com/passionate-dev7/facepay/backend/pkg/common/db"
	"github.com/passionate-dev7/facepay/backend/pkg/common/migrations"
	"github.com/passionate-dev7/facepay/backend/pkg/fabricclient"
	"github.com/passionate-dev7/facepay/backend/services/payments-service/models"
)

type chainClient interface {
	SubmitTransaction(name string, args ...string) ([]byte, error)
	SubmitAs(wallet, name string, args ...string) ([]byte, error)
	EvaluateTransaction(name string, args ...string) ([]byte, error)
}

type Service struct {
	chain chainClient
	db    *sql.DB
	cfg   *common.Config
}

// PayByFaceHandler records a pending payment, submits it on-chain signed by
// the payer's wallet identity, then settles the local row from the returned
// receipt. When the client supplies the account it expects the fingerprint to
// resolve to, the facade's cross-checked path is used instead of the plain
// ledger path.
func (s *Service) PayByFaceHandler(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()

	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", traceID)
		return
	}
	if req.WalletID == "" || req.RecipientFingerprint == "" || req.Amount <= 0 {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Wallet, fingerprint and positive amount required", traceID)
		return
	}

	ref := "pay-" + uuid.NewString()
	amount := strconv.FormatInt(req.Amount, 10)

	_, err := s.db.Exec(`
		INSERT INTO payments_db.payments (
			ref, recipient_fingerprint, amount, status
		) VALUES ($1, $2, $3, $4)`,
		ref, req.RecipientFingerprint, req.Amount, "Pending")
	if err != nil {
		log.Printf("Failed to record pending payment: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to record payment", traceID)
		return
	}

	var result []byte
	if req.ExpectedAccount != "" {
		result, err = s.chain.SubmitAs(req.WalletID, "facepay:PayWithVerification",
			req.RecipientFingerprint, req.ExpectedAccount, amount, s.cfg.LedgerAdmin)
	} else {
		result, err = s.chain.SubmitAs(req.WalletID, "ledger:PayByFingerprint",
			req.RecipientFingerprint, amount, s.cfg.LedgerAdmin)
	}
	if err != nil {
		log.Printf("Payment %s failed on chain: %v", ref, err)
		status, code := api.StatusForChainError(err)
		s.db.Exec("UPDATE payments_db.payments SET status = 'Failed', error_code = $1 WHERE ref = $2", code, ref)
		api.WriteError(w, status, code, "Payment failed", traceID)
		return
	}

	var receipt models.Receipt
	if err := json.Unmarshal(result, &receipt); err != nil {
		log.Printf("Failed to parse receipt for %s: %v", ref, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to parse receipt", traceID)
		return
	}

	s.db.Exec(`
		UPDATE payments_db.payments
		SET status = 'Confirmed', payment_id = $1, recipient_account = $2, fee_amount = $3
		WHERE ref = $4`,
		receipt.PaymentID, receipt.RecipientAccount, receipt.FeeAmount, ref)

	api.WriteSuccess(w, http.StatusOK, receipt)
}

func (s *Service) GetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	var p models.Payment
	var paymentID sql.NullInt64
	var recipientAccount, errorCode sql.NullString
	err := s.db.QueryRow(`
		SELECT ref, payment_id, recipient_fingerprint, recipient_account, amount, fee_amount, status, error_code, created_at
		FROM payments_db.payments WHERE ref = $1`, ref).
		Scan(&p.Ref, &paymentID, &p.RecipientFingerprint, &recipientAccount, &p.Amount, &p.FeeAmount, &p.Status, &errorCode, &p.CreatedAt)
	if err == sql.ErrNoRows {
		api.WriteError(w, http.StatusNotFound, "not_found", "Payment not found", "")
		return
	} else if err != nil {
		log.Printf("DB error: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Database error", "")
		return
	}
	if paymentID.Valid {
		id := uint64(paymentID.Int64)
		p.PaymentID = &id
	}
	p.RecipientAccount = recipientAccount.String
	p.ErrorCode = errorCode.String

	api.WriteSuccess(w, http.StatusOK, p)
}

func (s *Service) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(`
		SELECT ref, recipient_fingerprint, amount, fee_amount, status, created_at
		FROM payments_db.payments ORDER BY created_at DESC LIMIT 50`)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch history", "")
		return
	}
	defer rows.Close()

	history := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.Ref, &p.RecipientFingerprint, &p.Amount, &p.FeeAmount, &p.Status, &p.CreatedAt); err == nil {
			history = append(history, p)
		}
	}

	api.WriteSuccess(w, http.StatusOK, history)
}

func (s *Service) TotalsHandler(w http.ResponseWriter, r *http.Request) {
	result, err := s.chain.EvaluateTransaction("ledger:SystemTotals", s.cfg.LedgerAdmin)
	if err != nil {
		status, code := api.StatusForChainError(err)
		api.WriteError(w, status, code, "Totals unavailable", "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(result)
}

func (s *Service) SetFeeRateHandler(w http.ResponseWriter, r *http.Request) {
	var req models.FeeRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}

	_, err := s.chain.SubmitTransaction("ledger:SetFeeRateBps",
		strconv.FormatInt(req.FeeRateBps, 10), s.cfg.LedgerAdmin)
	if err != nil {
		status, code := api.StatusForChainError(err)
		api.WriteError(w, status, code, "Fee rate update failed", "")
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Service) AddAssetHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}

	_, err := s.chain.SubmitTransaction("ledger:AddSupportedAsset",
		req.Symbol, strconv.FormatInt(req.Minimum, 10), s.cfg.LedgerAdmin)
	if err != nil {
		status, code := api.StatusForChainError(err)
		api.WriteError(w, status, code, "Asset add failed", "")
		return
	}

	api.WriteSuccess(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Service) RemoveAssetHandler(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	_, err := s.chain.SubmitTransaction("ledger:RemoveSupportedAsset", symbol, s.cfg.LedgerAdmin)
	if err != nil {
		status, code := api.StatusForChainError(err)
		api.WriteError(w, status, code, "Asset removal failed", "")
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Service) IssueHandler(w http.ResponseWriter, r *http.Request) {
	var req models.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}

	_, err := s.chain.SubmitTransaction("ledger:Issue",
		req.Account, strconv.FormatInt(req.Amount, 10), s.cfg.LedgerAdmin)
	if err != nil {
		status, code := api.StatusForChainError(err)
		api.WriteError(w, status, code, "Issue failed", "")
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]string{"status": "issued"})
}

// indexEvents mirrors committed payment events into the local DB, catching
// payments submitted by other clients of the same chaincode.
func (s *Service) indexEvents(events <-chan *fab.CCEvent) {
	for ev := range events {
		var receipt models.Receipt
		if err := json.Unmarshal(ev.Payload, &receipt); err != nil {
			log.Printf("Failed to decode %s event: %v", ev.EventName, err)
			continue
		}
		_, err := s.db.Exec(`
			INSERT INTO payments_db.payments (
				ref, payment_id, recipient_fingerprint, recipient_account, amount, fee_amount, status
			) VALUES ($1, $2, $3, $4, $5, $6, 'Confirmed')
			ON CONFLICT (payment_id) DO UPDATE SET status = 'Confirmed'`,
			"chain-"+ev.TxID, receipt.PaymentID, receipt.RecipientFingerprint,
			receipt.RecipientAccount, receipt.SourceAmount, receipt.FeeAmount)
		if err != nil {
			log.Printf("Failed to index payment %d: %v", receipt.PaymentID, err)
		}
	}
}

func main() {
	cfg := common.LoadConfig()

	database, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	if err := migrations.RunMigrations(database, "backend/migrations/payments"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	fabric, err := fabricclient.NewClient(
		cfg.FabricConfig,
		cfg.Channel,
		cfg.Chaincode,
		cfg.MSP,
		cfg.CertPath,
		cfg.KeyPath,
	)
	if err != nil {
		log.Fatalf("Failed to connect to Fabric: %v", err)
	}
	defer fabric.Close()

	svc := &Service{chain: fabric, db: database, cfg: cfg}

	events, cancel, err := fabric.ListenEvents("PaymentCompleted")
	if err != nil {
		log.Printf("Warning: event listener unavailable: %v", err)
	} else {
		defer cancel()
		go svc.indexEvents(events)
	}

	secret := []byte(cfg.JWTSecret)
	r := mux.NewRouter()
	r.HandleFunc("/payments/face", svc.PayByFaceHandler).Methods("POST")
	r.HandleFunc("/payments/history", svc.HistoryHandler).Methods("GET")
	r.HandleFunc("/payments/totals", svc.TotalsHandler).Methods("GET")
	r.HandleFunc("/payments/{ref}", svc.GetPaymentHandler).Methods("GET")
	r.Handle("/admin/fee-rate", common.AuthMiddleware(secret, common.RequireRole("ADMIN", svc.SetFeeRateHandler))).Methods("PUT")
	r.Handle("/admin/assets", common.AuthMiddleware(secret, common.RequireRole("ADMIN", svc.AddAssetHandler))).Methods("POST")
	r.Handle("/admin/assets/{symbol}", common.AuthMiddleware(secret, common.RequireRole("ADMIN", svc.RemoveAssetHandler))).Methods("DELETE")
	r.Handle("/admin/issue", common.AuthMiddleware(secret, common.RequireRole("ADMIN", svc.IssueHandler))).Methods("POST")

	log.Printf("Payments Service running on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
