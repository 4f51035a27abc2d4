package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	Oracle      OracleConfig
	Negotiation NegotiationConfig
	SessionPath string
	Upload      UploadConfig
}

type OracleConfig struct {
	Provider        string // "openai" (default), "gemini", "fake"
	BaseURL         string
	APIKey          string
	Model           string
	MaxOutputTokens int
	RPS             float64
	Burst           int
	UsageLedgerPath string
}

type NegotiationConfig struct {
	MaxDepth int
}

type UploadConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:        *port,
		Env:         env,
		Oracle:      loadOracleConfig(),
		Negotiation: loadNegotiationConfig(),
		SessionPath: firstNonEmpty(strings.TrimSpace(os.Getenv("INTAKE_SESSION_PATH")), ".docintake/sessions.json"),
		Upload:      loadUploadConfig(env),
	}, nil
}

func loadOracleConfig() OracleConfig {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("ORACLE_PROVIDER")))
	if provider == "" {
		provider = "openai"
	}
	model := strings.TrimSpace(os.Getenv("ORACLE_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}
	return OracleConfig{
		Provider:        provider,
		BaseURL:         strings.TrimSpace(os.Getenv("ORACLE_BASE_URL")),
		APIKey:          strings.TrimSpace(os.Getenv("ORACLE_API_KEY")),
		Model:           model,
		MaxOutputTokens: envInt("ORACLE_MAX_OUTPUT_TOKENS", 2048),
		RPS:             envFloat("ORACLE_RPS", 0),
		Burst:           envInt("ORACLE_BURST", 0),
		UsageLedgerPath: strings.TrimSpace(os.Getenv("ORACLE_USAGE_LEDGER")),
	}
}

func loadNegotiationConfig() NegotiationConfig {
	return NegotiationConfig{
		MaxDepth: envInt("NEGOTIATION_MAX_DEPTH", 2),
	}
}

func loadUploadConfig(env string) UploadConfig {
	endpoint := resolveUploadEndpoint(env)
	return UploadConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_S3_BUCKET")), "docintake-uploads"),
		UseSSL:    resolveUploadUseSSL(env),
	}
}

func resolveUploadEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("UPLOAD_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("UPLOAD_S3_ENDPOINT"))
}

func resolveUploadUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("UPLOAD_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
