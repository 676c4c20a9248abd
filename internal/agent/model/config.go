package model

// ================ Config ================
type FetchConfig struct {
	MaxRetries        int     `envconfig:"FETCH_MAX_RETRIES" default:"3"`
	InitialBackoffMS  int     `envconfig:"FETCH_INITIAL_BACKOFF_MS" default:"1000"`
	BackoffMultiplier float64 `envconfig:"FETCH_BACKOFF_MULTIPLIER" default:"2.0"`
	MaxBackoffMS      int     `envconfig:"FETCH_MAX_BACKOFF_MS" default:"32000"`
	Jitter            bool    `envconfig:"FETCH_BACKOFF_JITTER" default:"true"`
	OfferCacheSize    int     `envconfig:"OFFER_CACHE_SIZE" default:"128"`
}

type SelectorConfig struct {
	// Aggregation must beat the exact pack by more than this factor of the
	// exact pack's price to win, avoiding churn on marginal savings.
	DominanceThreshold float64 `envconfig:"SELECTOR_DOMINANCE_THRESHOLD" default:"0.85"`
}

type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0.1"`
}

type ReasonerModelConfig struct {
	Model       string  `envconfig:"REASONER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"REASONER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"REASONER_TEMPERATURE" default:"0.3"`
}

type SessionConfig struct {
	AuditTTL string `envconfig:"SESSION_AUDIT_TTL" default:"24h"`
}
