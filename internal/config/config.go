// Package config loads the service's configuration from a .env file and
// environment variables, the way the teacher's internal/config package does.
package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
)

// Config holds every tunable named in spec §6 plus the ambient paths and
// engine binary location.
type Config struct {
	// Server / control surface
	Port string
	Host string

	// Database configuration
	DatabasePath string

	// Model selection policy (§4.4)
	DefaultModel          string
	SmallModelThresholdMB float64
	MaxFileSizeMB         float64

	// Downloads watcher (§4.6)
	DownloadsUserID        int64
	AdminIDs               []int64
	DownloadsPollInterval  int // seconds
	DownloadsDir           string

	// Dispatcher supervisor (§4.5)
	DispatcherHealthInterval int // seconds

	// Filesystem contract (§6)
	TempAudioDir      string
	TranscriptionsDir string

	// Transcription engine (C2's black-box callable)
	EnginePath string

	// ControlSecret authenticates transflowctl against the control HTTP
	// surface; derived and persisted the same way the teacher persists its
	// JWT secret, but via HKDF since this secret never needs to be a JWT.
	ControlSecret string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		Host:         getEnv("HOST", "localhost"),
		DatabasePath: getEnv("DATABASE_PATH", "data/transflow.db"),

		DefaultModel:          getEnv("DEFAULT_MODEL", "small"),
		SmallModelThresholdMB: getEnvAsFloat("SMALL_MODEL_THRESHOLD_MB", 20.0),
		MaxFileSizeMB:         getEnvAsFloat("MAX_FILE_SIZE_MB", 300.0),

		DownloadsUserID:       int64(getEnvAsInt("DOWNLOADS_USER_ID", -1)),
		AdminIDs:              getEnvAsInt64List("ADMIN_IDS"),
		DownloadsPollInterval: getEnvAsInt("DOWNLOADS_POLL_INTERVAL_S", 30),
		DownloadsDir:          getEnv("DOWNLOADS_DIR", "data/downloads"),

		DispatcherHealthInterval: getEnvAsInt("DISPATCHER_HEALTH_INTERVAL_S", 300),

		TempAudioDir:      getEnv("TEMP_AUDIO_DIR", "data/temp_audio"),
		TranscriptionsDir: getEnv("TRANSCRIPTIONS_DIR", "data/transcriptions"),

		EnginePath: findEnginePath(),

		ControlSecret: getControlSecret(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsInt64List(key string) []int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if v, err := strconv.ParseInt(part, 10, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// getControlSecret derives the persistent bearer secret transflowctl presents
// to the control surface from a random seed, the same "generate once, persist to disk"
// shape as the teacher's getJWTSecret, but running the seed through HKDF-SHA256
// instead of using it raw.
func getControlSecret() string {
	if secret := os.Getenv("CONTROL_SECRET"); secret != "" {
		return secret
	}

	secretFile := getEnv("CONTROL_SECRET_FILE", "data/control_secret")
	if data, err := os.ReadFile(secretFile); err == nil && len(data) > 0 {
		return strings.TrimSpace(string(data))
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		log.Printf("Warning: could not generate secure control secret, using fallback: %v", err)
		return "fallback-control-secret-please-set-CONTROL_SECRET-env-var"
	}

	kdf := hkdf.New(sha256.New, seed, nil, []byte("transflow-control-secret"))
	derived := make([]byte, 32)
	if _, err := io.ReadFull(kdf, derived); err != nil {
		log.Printf("Warning: hkdf expansion failed, using raw seed: %v", err)
		derived = seed
	}

	secret := hex.EncodeToString(derived)
	_ = os.MkdirAll(filepath.Dir(secretFile), 0755)
	_ = os.WriteFile(secretFile, []byte(secret), 0600)
	log.Println("Generated persistent control secret at", secretFile)
	return secret
}

// findEnginePath locates the transcription engine's launcher binary, the
// same way the teacher locates its UV package manager.
func findEnginePath() string {
	if path := os.Getenv("ENGINE_PATH"); path != "" {
		return path
	}
	if path, err := exec.LookPath("uv"); err == nil {
		log.Printf("Found transcription engine launcher at: %s", path)
		return path
	}
	log.Println("Warning: transcription engine launcher not found in PATH, using 'uv' as fallback")
	return "uv"
}
