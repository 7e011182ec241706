// Package scheduler implements the Extract Scheduler (spec.md §4.7): a
// periodic task that writes true to every discovered MacManData.extract
// trigger node.
package scheduler

import (
	"context"
	"time"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/interfaces"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

type Scheduler struct {
	cp       interfaces.ControlPlaneClient
	interval time.Duration
	logger   *logging.Logger
}

// New builds a Scheduler. A zero interval disables it (spec.md §4.7
// "Zero interval disables the scheduler").
func New(cp interfaces.ControlPlaneClient, interval time.Duration, logger *logging.Logger) *Scheduler {
	return &Scheduler{cp: cp, interval: interval, logger: logger.WithPrefix("SCHEDULER")}
}

// Run ticks until ctx is cancelled. Ticks are fire-and-forget: a long tick
// does not delay the next (spec.md §4.7).
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Extract scheduler disabled (zero interval)")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	machines, err := s.cp.Browse(ctx, domain.MachinesRootNodeID())
	if err != nil {
		s.logger.Warn("Failed to browse machines for scheduler tick", "error", err)
		return
	}

	for _, m := range machines {
		if domain.IsSystemName(m.DisplayName) {
			continue
		}
		nodeID := domain.MacManExtractNodeID(m.DisplayName)
		value, ok := s.cp.Read(ctx, nodeID)
		if !ok {
			s.logger.Warn("MacManData.extract not readable, skipping", "machine", m.DisplayName)
			continue
		}
		if value.Kind != domain.KindBool {
			s.logger.Warn("MacManData.extract is not boolean-like, skipping", "machine", m.DisplayName, "kind", value.Kind)
			continue
		}
		if ok := s.cp.Write(ctx, nodeID, domain.BoolValue(true)); !ok {
			s.logger.Warn("Failed to raise MacManData.extract", "machine", m.DisplayName)
		}
	}
}
