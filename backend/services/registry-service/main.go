package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/passionate-dev7/facepay/backend/pkg/blobstore"
	"github.com/passionate-dev7/facepay/backend/pkg/common"
	"github.com/passionate-dev7/facepay/backend/pkg/common/api"
	"github.com/passionate-dev7/facepay/backend/pkg/common/db"
	"github.com/passionate-dev7/facepay/backend/pkg/common/migrations"
	"github.com/passionate-dev7/facepay/backend/pkg/facehash"
	"github.com/passionate-dev7/facepay/backend/pkg/fabricclient"
	"github.com/passionate-dev7/facepay/backend/services/registry-service/models"
)

type chainClient interface {
	SubmitTransaction(name string, args ...string) ([]byte, error)
	SubmitAs(wallet, name string, args ...string) ([]byte, error)
	EvaluateTransaction(name string, args ...string) ([]byte, error)
}

type Service struct {
	chain chainClient
	db    *sql.DB
	blobs *blobstore.Client
	cfg   *common.Config
}

// RegisterFaceHandler derives the fingerprint from the submitted descriptor,
// seals and pins the descriptor blob, then submits the on-chain registration
// signed by the user's own wallet identity. The chain binds the identity to
// the signer, so the service identity must not sign here.
func (s *Service) RegisterFaceHandler(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()

	var req models.RegisterFaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", traceID)
		return
	}
	if len(req.Descriptor) == 0 {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Descriptor is required", traceID)
		return
	}
	if req.WalletID == "" {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Wallet ID is required", traceID)
		return
	}

	fingerprint := facehash.Fingerprint(req.Descriptor)

	payload, _ := json.Marshal(req.Descriptor)
	sealed, err := blobstore.Seal(s.cfg.BlobKey, payload)
	if err != nil {
		log.Printf("Failed to seal descriptor: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to seal descriptor", traceID)
		return
	}
	cid, err := s.blobs.Put(r.Context(), sealed)
	if err != nil {
		log.Printf("Failed to pin descriptor blob: %v", err)
		api.WriteError(w, http.StatusBadGateway, "blob_gateway_error", "Failed to store descriptor", traceID)
		return
	}

	_, err = s.chain.SubmitAs(req.WalletID, "registry:Register",
		fingerprint, cid, req.PreferredAsset, req.DisplayName, s.cfg.RegistryAdmin)
	if err != nil {
		log.Printf("Failed to register on chain: %v", err)
		status, code := api.StatusForChainError(err)
		api.WriteError(w, status, code, "Registration failed", traceID)
		return
	}

	// Mirror the registration; descriptors are kept locally (demo) so the
	// match endpoint can scan them.
	_, err = s.db.Exec(`
		INSERT INTO registry_db.identities (
			fingerprint, blob_cid, display_name, preferred_asset, descriptor
		) VALUES ($1, $2, $3, $4, $5)`,
		fingerprint, cid, req.DisplayName, req.PreferredAsset, string(payload))
	if err != nil {
		log.Printf("Failed to mirror identity: %v", err)
	}

	api.WriteSuccess(w, http.StatusCreated, models.RegisterFaceResponse{
		Fingerprint:   fingerprint,
		BlobReference: cid,
		Status:        "registered",
	})
}

func (s *Service) LookupFaceHandler(w http.ResponseWriter, r *http.Request) {
	fingerprint := mux.Vars(r)["fingerprint"]

	result, err := s.chain.EvaluateTransaction("registry:LookupByFingerprint", s.cfg.RegistryAdmin, fingerprint)
	if err != nil {
		status, code := api.StatusForChainError(err)
		api.WriteError(w, status, code, "Lookup failed", "")
		return
	}
	account := string(result)
	if account == "" {
		api.WriteError(w, http.StatusNotFound, "not_found", "Fingerprint is not registered", "")
		return
	}

	api.WriteSuccess(w, http.StatusOK, models.LookupResponse{Fingerprint: fingerprint, Account: account})
}

func (s *Service) ExistsHandler(w http.ResponseWriter, r *http.Request) {
	fingerprint := mux.Vars(r)["fingerprint"]

	result, err := s.chain.EvaluateTransaction("registry:ExistsByFingerprint", s.cfg.RegistryAdmin, fingerprint)
	if err != nil {
		status, code := api.StatusForChainError(err)
		api.WriteError(w, status, code, "Lookup failed", "")
		return
	}

	api.WriteSuccess(w, http.StatusOK, models.ExistsResponse{Exists: string(result) == "true"})
}

// MatchFaceHandler runs the linear nearest-neighbor scan over mirrored
// descriptors for clients that cannot match locally. The cutoff is the
// client's call; the config value is only a default.
func (s *Service) MatchFaceHandler(w http.ResponseWriter, r *http.Request) {
	var req models.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}
	if len(req.Descriptor) == 0 {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Descriptor is required", "")
		return
	}
	cutoff := req.MaxDistance
	if cutoff <= 0 {
		cutoff = s.cfg.MatchCutoff
	}

	rows, err := s.db.Query(`SELECT fingerprint, descriptor FROM registry_db.identities`)
	if err != nil {
		log.Printf("Failed to load descriptors: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to load descriptors", "")
		return
	}
	defer rows.Close()

	var candidates []facehash.Candidate
	for rows.Next() {
		var fingerprint, raw string
		if err := rows.Scan(&fingerprint, &raw); err != nil {
			continue
		}
		var descriptor []float64
		if err := json.Unmarshal([]byte(raw), &descriptor); err != nil {
			continue
		}
		candidates = append(candidates, facehash.Candidate{Fingerprint: fingerprint, Descriptor: descriptor})
	}

	best, distance, ok := facehash.NearestMatch(candidates, req.Descriptor, cutoff)
	if !ok {
		api.WriteError(w, http.StatusNotFound, "no_match", "No registered face within the cutoff", "")
		return
	}

	account := ""
	if result, err := s.chain.EvaluateTransaction("registry:LookupByFingerprint", s.cfg.RegistryAdmin, best.Fingerprint); err == nil {
		account = string(result)
	}

	api.WriteSuccess(w, http.StatusOK, models.MatchResponse{
		Fingerprint: best.Fingerprint,
		Account:     account,
		Distance:    distance,
	})
}

func (s *Service) UpdatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}
	if req.WalletID == "" {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Wallet ID is required", "")
		return
	}

	_, err := s.chain.SubmitAs(req.WalletID, "registry:UpdatePreferences",
		req.PreferredAsset, req.DisplayName, s.cfg.RegistryAdmin)
	if err != nil {
		status, code := api.StatusForChainError(err)
		api.WriteError(w, status, code, "Preference update failed", "")
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Service) AdminVerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}

	_, err := s.chain.SubmitTransaction("registry:SetVerified",
		req.Owner, strconv.FormatBool(req.Verified), s.cfg.RegistryAdmin)
	if err != nil {
		status, code := api.StatusForChainError(err)
		api.WriteError(w, status, code, "Verification update failed", "")
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ListIdentitiesHandler returns the mirrored registrations for operator
// tooling. The chain remains the source of truth; this is the local view.
func (s *Service) ListIdentitiesHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(`
		SELECT fingerprint, blob_cid, display_name, preferred_asset, created_at
		FROM registry_db.identities ORDER BY created_at DESC`)
	if err != nil {
		log.Printf("Failed to list identities: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to list identities", "")
		return
	}
	defer rows.Close()

	identities := []models.IdentityRow{}
	for rows.Next() {
		var row models.IdentityRow
		if err := rows.Scan(&row.Fingerprint, &row.BlobCID, &row.DisplayName, &row.PreferredAsset, &row.CreatedAt); err == nil {
			identities = append(identities, row)
		}
	}

	api.WriteSuccess(w, http.StatusOK, identities)
}

func (s *Service) StatsHandler(w http.ResponseWriter, r *http.Request) {
	result, err := s.chain.EvaluateTransaction("registry:RegistryStats", s.cfg.RegistryAdmin)
	if err != nil {
		status, code := api.StatusForChainError(err)
		api.WriteError(w, status, code, "Stats unavailable", "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(result)
}

func main() {
	cfg := common.LoadConfig()

	database, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	if err := migrations.RunMigrations(database, "backend/migrations/registry"); err != nil {
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

	svc := &Service{
		chain: fabric,
		db:    database,
		blobs: blobstore.New(cfg.BlobGateway),
		cfg:   cfg,
	}

	secret := []byte(cfg.JWTSecret)
	r := mux.NewRouter()
	r.HandleFunc("/faces/register", svc.RegisterFaceHandler).Methods("POST")
	r.HandleFunc("/faces/match", svc.MatchFaceHandler).Methods("POST")
	r.HandleFunc("/faces/{fingerprint}/exists", svc.ExistsHandler).Methods("GET")
	r.HandleFunc("/faces/{fingerprint}", svc.LookupFaceHandler).Methods("GET")
	r.Handle("/profiles/preferences", common.AuthMiddleware(secret, http.HandlerFunc(svc.UpdatePreferencesHandler))).Methods("PUT")
	r.Handle("/admin/verify", common.AuthMiddleware(secret, common.RequireRole("ADMIN", svc.AdminVerifyHandler))).Methods("POST")
	r.Handle("/admin/identities", common.AuthMiddleware(secret, common.RequireRole("ADMIN", svc.ListIdentitiesHandler))).Methods("GET")
	r.HandleFunc("/registry/stats", svc.StatsHandler).Methods("GET")

	log.Printf("Registry Service running on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
