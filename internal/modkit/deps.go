// Package modkit provides module wiring and core deps
package modkit

import (
	"quorum/internal/modkit/repokit"
	"quorum/internal/platform/config"
	"quorum/internal/platform/logger"
	"quorum/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}
