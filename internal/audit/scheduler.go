package audit

import (
	"context"
	"flairhq/internal/audit/interfaces"
	"flairhq/internal/providers"
	"flairhq/internal/structures"
	"github.com/roylee0704/gron"
	"sync"
	"time"
)

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
	fileManager *FileManager
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	// Persist logs its own failures
	s.cron.AddFunc(gron.Every(s.config.Archive.Interval), func() {
		_ = s.Persist()
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	restored, err := s.fileManager.LoadFromFile(context.Background(), s.config.Archive.FilePath)
	if err != nil {
		return err
	}
	if restored > 0 {
		s.logger.Infof(providers.TypeApp, "Restored %d moderation events from %s", restored, s.config.Archive.FilePath)
	}
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	count, err := s.fileManager.SaveToFile(context.Background(), s.config.Archive.FilePath)
	s.metrics.ObserveArchiveDuration(time.Since(start))
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while archiving moderation log: %s", err)
		return err
	}
	s.logger.Infof(providers.TypeApp, "Archived %d moderation events to %s", count, s.config.Archive.FilePath)
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, fileManager *FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	if !config.Archive.Enabled {
		return &noopScheduler{}
	}
	return &Scheduler{
		config:      config,
		logger:      logger,
		metrics:     metrics,
		fileManager: fileManager,
	}
}

// noopScheduler is used when archiving is disabled.
type noopScheduler struct{}

func (n *noopScheduler) Init()          {}
func (n *noopScheduler) Stop()          {}
func (n *noopScheduler) Restore() error { return nil }
func (n *noopScheduler) Persist() error { return nil }
