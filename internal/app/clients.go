package app

import (
	"fmt"

	"github.com/yungbote/hansard-backend/internal/platform/hansard"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
	"github.com/yungbote/hansard-backend/internal/platform/openai"
	"github.com/yungbote/hansard-backend/internal/platform/redisbus"
)

type Clients struct {
	Hansard *hansard.Client
	OpenAI  *openai.APIClient
	// RunBus is nil when REDIS_ADDR is unset.
	RunBus redisbus.RunBus
}

// wireClients builds the external clients. The OpenAI client is optional
// when analysis and indexing are both off for the run.
func wireClients(log *logger.Logger, cfg Config, needOpenAI bool) (Clients, error) {
	log.Info("Wiring clients...")

	var out Clients
	out.Hansard = hansard.New(log, cfg.Hansard)

	if needOpenAI {
		c, err := openai.NewClient(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		out.OpenAI = c
		log.Info("OpenAI client ready", "model", c.Model())
	}

	if cfg.RedisAddr != "" {
		bus, err := redisbus.NewRunBus(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis run bus: %w", err)
		}
		out.RunBus = bus
	}
	return out, nil
}
