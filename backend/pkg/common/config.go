package common

import (
	"encoding/hex"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	FabricConfig  string
	MSP           string
	CertPath      string
	KeyPath       string
	Channel       string
	Chaincode     string
	RegistryAdmin string
	LedgerAdmin   string
	JWTSecret     string
	BlobGateway   string
	BlobKey       []byte
	MatchCutoff   float64
	DB            DBConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func LoadConfig() *Config {
	// Optional; real deployments set the environment directly.
	_ = godotenv.Load()

	blobKey, _ := hex.DecodeString(getEnv("BLOB_KEY", ""))

	return &Config{
		Port:          getEnv("PORT", "8080"),
		FabricConfig:  getEnv("FABRIC_CONFIG", "connection-profile.yaml"),
		MSP:           getEnv("MSP_ID", "FacePayMSP"),
		CertPath:      getEnv("CERT_PATH", ""),
		KeyPath:       getEnv("KEY_PATH", ""),
		Channel:       getEnv("FABRIC_CHANNEL", "facepay-channel"),
		Chaincode:     getEnv("FABRIC_CHAINCODE", "facepay-core"),
		RegistryAdmin: getEnv("REGISTRY_ADMIN", ""),
		LedgerAdmin:   getEnv("LEDGER_ADMIN", ""),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		BlobGateway:   getEnv("BLOB_GATEWAY", "http://localhost:9094"),
		BlobKey:       blobKey,
		MatchCutoff:   getEnvFloat("MATCH_CUTOFF", 0.4),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "facepay"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
