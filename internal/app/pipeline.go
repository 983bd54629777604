package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/hansard-backend/internal/modules/debates/steps"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

// wirePipeline assembles the runner. Indexing is wired only when enabled and
// an OpenAI client is available.
func wirePipeline(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, reposet Repos) *steps.Runner {
	log.Info("Wiring pipeline...")

	deps := steps.RunnerDeps{
		Log:       log,
		DB:        db,
		Records:   clients.Hansard,
		Persister: steps.NewPersister(log, db, reposet.Debate, reposet.Division),
	}
	if clients.OpenAI != nil {
		deps.AI = clients.OpenAI
		if cfg.VectorIndexEnabled {
			windows := steps.NewWindowManager(log, reposet.VectorStoreWindow, clients.OpenAI)
			deps.Indexer = steps.NewIndexer(log, clients.OpenAI, windows, reposet.Debate, cfg.PermanentVectorStoreID)
		}
	}
	if clients.RunBus != nil {
		deps.Notifier = clients.RunBus
	}
	return steps.NewRunner(deps, cfg.Runner)
}
