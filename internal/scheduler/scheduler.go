package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leave-system/pkg/config"
	"leave-system/pkg/constants"
	"leave-system/pkg/metrics"
)

// jobTimeout ограничивает один запуск задачи; на это же время берётся блокировка.
const jobTimeout = 5 * time.Minute

// Job - периодическая задача. Run должен быть идемпотентным.
type Job struct {
	Name     string
	Schedule Schedule
	Run      func(ctx context.Context) error
}

// LockStore - хранилище отметок и блокировок (Redis).
type LockStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key string, value string) (bool, error)
}

// Scheduler запускает задачи по расписанию. Одна задача не выполняется
// параллельно ни в этом процессе, ни на других экземплярах приложения.
type Scheduler struct {
	jobs     []Job
	locks    LockStore
	cfg      config.SchedulerConfig
	metrics  *metrics.Metrics
	log      *zap.Logger
	instance string
	now      func() time.Time

	mu      sync.Mutex
	running map[string]bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(locks LockStore, cfg config.SchedulerConfig, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		locks:    locks,
		cfg:      cfg,
		metrics:  m,
		log:      logger,
		instance: uuid.NewString(),
		now:      time.Now,
		running:  make(map[string]bool),
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Register(jobs ...Job) {
	s.jobs = append(s.jobs, jobs...)
}

// Start запускает цикл проверки расписания.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	s.log.Info("Планировщик запущен",
		zap.Int("jobs", len(s.jobs)),
		zap.Duration("tick", s.cfg.TickInterval),
		zap.String("instance", s.instance))
}

// Stop останавливает цикл и дожидается завершения запущенных задач.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.log.Info("Планировщик остановлен")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.tick()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick запускает в отдельных горутинах все задачи, чей период наступил.
func (s *Scheduler) tick() {
	now := s.now().In(s.cfg.Location)
	for _, job := range s.jobs {
		period, ok := job.Schedule.Due(now)
		if !ok {
			continue
		}
		if !s.markRunning(job.Name) {
			s.metrics.JobSkipped(job.Name)
			s.log.Debug("Задача ещё выполняется, запуск пропущен", zap.String("job", job.Name))
			continue
		}
		s.wg.Add(1)
		go func(job Job, period string) {
			defer s.wg.Done()
			defer s.clearRunning(job.Name)
			s.execute(job, period)
		}(job, period)
	}
}

func (s *Scheduler) execute(job Job, period string) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	logger := s.log.With(zap.String("job", job.Name), zap.String("period", period))

	lockKey := fmt.Sprintf(constants.CacheKeySchedulerLock, job.Name)
	locked, err := s.locks.SetNX(ctx, lockKey, s.instance, jobTimeout)
	if err != nil {
		logger.Error("Не удалось взять блокировку задачи", zap.Error(err))
		return
	}
	if !locked {
		s.metrics.JobSkipped(job.Name)
		logger.Debug("Задача выполняется на другом экземпляре")
		return
	}
	defer s.release(lockKey)

	claimKey := fmt.Sprintf(constants.CacheKeySchedulerClaim, job.Name, period)
	claimed, err := s.locks.SetNX(ctx, claimKey, s.instance, job.Schedule.ClaimTTL())
	if err != nil {
		logger.Error("Не удалось отметить запуск задачи", zap.Error(err))
		return
	}
	if !claimed {
		return
	}

	started := time.Now()
	err = job.Run(ctx)
	s.metrics.JobFinished(job.Name, time.Since(started), err)
	if err != nil {
		// Снимаем отметку, чтобы задача повторилась на следующем тике в пределах периода.
		s.release(claimKey)
		logger.Error("Задача завершилась с ошибкой", zap.Error(err))
		return
	}
	logger.Info("Задача выполнена", zap.Duration("duration", time.Since(started)))
}

func (s *Scheduler) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	deleted, err := s.locks.DelIfValue(ctx, key, s.instance)
	if err != nil {
		s.log.Warn("Не удалось снять ключ планировщика", zap.String("key", key), zap.Error(err))
		return
	}
	if !deleted {
		s.log.Warn("Ключ планировщика уже принадлежит другому экземпляру", zap.String("key", key))
	}
}

func (s *Scheduler) markRunning(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[name] {
		return false
	}
	s.running[name] = true
	return true
}

func (s *Scheduler) clearRunning(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, name)
}
