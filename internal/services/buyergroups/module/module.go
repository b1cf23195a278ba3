// Package module wires the buyer-group persistence service and exposes its ports
package module

import (
	"quorum/internal/modkit"
	"quorum/internal/services/buyergroups/repo"
	"quorum/internal/services/buyergroups/service"
)

// Module defines the buyergroups module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the buyergroups module over the Postgres repo
func New(deps modkit.Deps) *Module {
	svc := service.New(deps, repo.NewPG())

	m := &Module{deps: deps}
	m.ports = Ports{Store: svc}
	return m
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "buyergroups" }
