package config

import (
	"log"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	AppEnv        string
	IsStaging     bool
	IsProduction  bool
	// IsAIEnabled gates all upstream LLM calls (enum: "1" or "0")
	IsAIEnabled bool

	JWTSecret string
	Port      string

	// PublicBaseURL is the externally reachable origin used to build
	// attachment download URLs.
	PublicBaseURL string
	// AIProxyURL is where the in-process AI bridge posts prompts. Defaults to
	// this server's own /api/ask endpoint.
	AIProxyURL string

	// runtime tunables
	RateLimitWindowSeconds int
	RateLimitCapacity      int
	UserConcurrencyLimit   int
	DuplicateWindowSeconds int
	AIReplyCacheTTLSeconds int
	AIReplyCacheMaxItems   int
	AIBridgeTimeoutSeconds int
	UploadMaxBytes         int64
)

// loadAppEnv loads .env for non-production environments only; production is
// expected to carry real environment variables.
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file loaded: %v", err)
	}
}

func init() {
	loadAppEnv()

	OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	OpenAIModel = os.Getenv("OPENAI_MODEL")
	OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")

	AppEnv = os.Getenv("APP_ENV")
	if !slices.Contains([]string{"staging", "production"}, AppEnv) {
		AppEnv = "staging"
	}
	IsStaging = AppEnv == "staging"
	IsProduction = AppEnv == "production"

	// IS_AI_ENABLED: "1" for enabled, anything else disables upstream calls
	IsAIEnabled = os.Getenv("IS_AI_ENABLED") == "1"

	if OpenAIModel == "" {
		OpenAIModel = "gpt-4o-mini"
	}
	if OpenAIBaseURL == "" {
		OpenAIBaseURL = "https://api.openai.com/v1"
	}

	JWTSecret = os.Getenv("JWT_SECRET_KEY")
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "5000"
	}

	PublicBaseURL = os.Getenv("PUBLIC_BASE_URL")
	if PublicBaseURL == "" {
		PublicBaseURL = "http://127.0.0.1:" + Port
	}
	AIProxyURL = os.Getenv("AI_PROXY_URL")
	if AIProxyURL == "" {
		AIProxyURL = "http://127.0.0.1:" + Port + "/api/ask"
	}

	// Tunables with defaults
	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	UserConcurrencyLimit = atoiOr(os.Getenv("USER_CONCURRENCY_LIMIT"), 2)
	DuplicateWindowSeconds = atoiOr(os.Getenv("DUPLICATE_WINDOW_SECONDS"), 45)
	AIReplyCacheTTLSeconds = atoiOr(os.Getenv("AI_REPLY_CACHE_TTL_SECONDS"), 600)
	AIReplyCacheMaxItems = atoiOr(os.Getenv("AI_REPLY_CACHE_MAX_ITEMS"), 500)
	AIBridgeTimeoutSeconds = atoiOr(os.Getenv("AI_BRIDGE_TIMEOUT_SECONDS"), 60)
	UploadMaxBytes = int64(atoiOr(os.Getenv("UPLOAD_MAX_BYTES"), 25*1024*1024))

	if IsProduction && JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set in production")
	}

	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v", AppEnv, IsStaging, IsProduction)
	log.Printf("[config] IsAIEnabled=%v OpenAIKeyPresent=%v model=%s", IsAIEnabled, OpenAIAPIKey != "", OpenAIModel)
	log.Printf("[config] RateLimit window=%ds capacity=%d userConc=%d dupWindow=%ds aiCacheTTL=%ds aiCacheMax=%d",
		RateLimitWindowSeconds, RateLimitCapacity, UserConcurrencyLimit, DuplicateWindowSeconds, AIReplyCacheTTLSeconds, AIReplyCacheMaxItems)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
