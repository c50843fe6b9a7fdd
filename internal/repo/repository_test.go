package repo_test

import (
	"testing"

	"github.com/hamed0406/probeexporter/internal/domain"
	"github.com/hamed0406/probeexporter/internal/repo"
	"github.com/hamed0406/probeexporter/internal/repo/memory"
	pg "github.com/hamed0406/probeexporter/internal/repo/postgres"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.ResultStore[domain.DomainResult] = memory.New[domain.DomainResult]()
	var _ repo.ResultStore[domain.CertResult] = memory.New[domain.CertResult]()
	var _ repo.ResultStore[domain.PortResult] = memory.New[domain.PortResult]()
	var _ repo.ResultStore[domain.HTTPResult] = memory.New[domain.HTTPResult]()
	var _ repo.AlertStore = memory.NewAlerts()

	var _ repo.TargetStore = (*pg.Store)(nil)
	var _ repo.AlertStore = (*pg.Store)(nil)
}
