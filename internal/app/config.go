package app

import (
	"strings"
	"time"

	"github.com/yungbote/hansard-backend/internal/modules/debates/steps"
	"github.com/yungbote/hansard-backend/internal/observability"
	"github.com/yungbote/hansard-backend/internal/platform/envutil"
	"github.com/yungbote/hansard-backend/internal/platform/hansard"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
	"github.com/yungbote/hansard-backend/internal/platform/redisbus"
)

type Config struct {
	Hansard hansard.Config
	Runner  steps.RunnerConfig
	Otel    observability.OtelConfig

	VectorIndexEnabled     bool
	PermanentVectorStoreID string

	RedisAddr    string
	RedisChannel string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Hansard: hansard.Config{
			BaseURL:           envutil.String("HANSARD_API_BASE_URL", hansard.DefaultBaseURL, log),
			MembersBaseURL:    envutil.String("MEMBERS_API_BASE_URL", hansard.DefaultMembersBaseURL, log),
			RequestsPerSecond: envutil.Float("RECORDS_RPS", 5, log),
			Burst:             envutil.Int("RECORDS_BURST", 5, log),
			Timeout:           time.Duration(envutil.Int("RECORDS_TIMEOUT_SECONDS", 30, log)) * time.Second,
			MaxRetries:        envutil.Int("RECORDS_MAX_RETRIES", 3, log),
		},
		Runner: steps.RunnerConfig{
			BatchSize:  envutil.Int("BATCH_SIZE", steps.DefaultBatchSize, log),
			BatchDelay: envutil.Millis("BATCH_DELAY_MS", steps.DefaultBatchDelay, log),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "hansard-pipeline", log),
			Environment: envutil.String("APP_ENV", "development", log),
			Version:     envutil.String("APP_VERSION", "", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1, log),
		},
		VectorIndexEnabled:     envutil.Bool("VECTOR_INDEX_ENABLED", true),
		PermanentVectorStoreID: envutil.String("PERMANENT_VECTOR_STORE_ID", "", log),
		RedisAddr:              strings.TrimSpace(envutil.String("REDIS_ADDR", "", log)),
		RedisChannel:           envutil.String("REDIS_CHANNEL", redisbus.DefaultChannel, log),
	}
}
