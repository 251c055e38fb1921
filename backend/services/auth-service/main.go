package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/passionate-dev7/facepay/backend/pkg/common"
	"github.com/passionate-dev7/facepay/backend/pkg/common/api"
	"github.com/passionate-dev7/facepay/backend/pkg/common/db"
	"github.com/passionate-dev7/facepay/backend/pkg/common/migrations"
	"github.com/passionate-dev7/facepay/backend/services/auth-service/models"
)

// Operator accounts gate the admin HTTP surface (verification flags, fee
// rate, asset set). End users never log in here; they sign chain
// transactions with their own wallets.

type Service struct {
	db     *sql.DB
	secret []byte
}

func (s *Service) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}
	if req.Role == "" {
		req.Role = "OPERATOR"
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to hash password", "")
		return
	}

	operatorID := "op-" + uuid.NewString()
	_, err = s.db.Exec(`
		INSERT INTO auth_db.operators (
			id, username, password_hash, role, status
		) VALUES ($1, $2, $3, $4, $5)`,
		operatorID, req.Username, string(hashedPassword), req.Role, "ACTIVE")
	if err != nil {
		log.Printf("Failed to register operator: %v", err)
		api.WriteError(w, http.StatusConflict, "operator_exists", "Username already exists", "")
		return
	}

	api.WriteSuccess(w, http.StatusCreated, map[string]string{"operator_id": operatorID, "status": "created"})
}

func (s *Service) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}

	var op models.Operator
	err := s.db.QueryRow(`
		SELECT id, password_hash, role, status
		FROM auth_db.operators WHERE username = $1`, req.Username).
		Scan(&op.ID, &op.PasswordHash, &op.Role, &op.Status)
	if err == sql.ErrNoRows {
		api.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password", "")
		return
	} else if err != nil {
		log.Printf("DB error: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Database error", "")
		return
	}

	if op.Status != "ACTIVE" {
		api.WriteError(w, http.StatusForbidden, "account_inactive", "Account is not active", "")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(req.Password)); err != nil {
		api.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password", "")
		return
	}

	go func() {
		s.db.Exec("UPDATE auth_db.operators SET last_login_at = $1 WHERE id = $2", time.Now(), op.ID)
	}()

	s.writeToken(w, op.ID, req.Username, op.Role)
}

func (s *Service) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.parseToken(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "invalid_token", "Invalid or expired token", "")
		return
	}
	s.writeToken(w, claims.OperatorID, claims.Username, claims.Role)
}

func (s *Service) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.parseToken(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "invalid_token", "Invalid or expired token", "")
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"valid":       true,
		"operator_id": claims.OperatorID,
		"username":    claims.Username,
		"role":        claims.Role,
	})
}

func (s *Service) writeToken(w http.ResponseWriter, operatorID, username, role string) {
	expirationTime := time.Now().Add(24 * time.Hour)
	claims := &common.Claims{
		OperatorID: operatorID,
		Username:   username,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			Issuer:    "facepay-auth-service",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to generate token", "")
		return
	}

	api.WriteSuccess(w, http.StatusOK, models.TokenResponse{Token: tokenString, ExpiresAt: expirationTime.Unix()})
}

func (s *Service) parseToken(r *http.Request) (*common.Claims, bool) {
	tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if tokenString == "" {
		return nil, false
	}

	claims := &common.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	return claims, true
}

func main() {
	cfg := common.LoadConfig()

	database, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	if err := migrations.RunMigrations(database, "backend/migrations/auth"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	svc := &Service{db: database, secret: []byte(cfg.JWTSecret)}

	r := mux.NewRouter()
	r.HandleFunc("/auth/register", svc.RegisterHandler).Methods("POST")
	r.HandleFunc("/auth/login", svc.LoginHandler).Methods("POST")
	r.HandleFunc("/auth/refresh", svc.RefreshHandler).Methods("POST")
	r.HandleFunc("/auth/verify", svc.VerifyHandler).Methods("GET")

	log.Printf("Auth Service running on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
