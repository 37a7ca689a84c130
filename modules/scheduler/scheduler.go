package scheduler

import (
	"context"

	"github.com/chebyrash/promise"
	"github.com/robfig/cron/v3"

	"ton-staking-manager/lib/logger"
	a "ton-staking-manager/modules/aggregate"
)

// StakingTriggers is the slice of the orchestrator the scheduler
// drives.
type StakingTriggers interface {
	SendStake(ctx context.Context, force bool) error
	RecoverStake(ctx context.Context) error
	TimeDiff(ctx context.Context) (int64, error)
}

type scheduler struct {
	conf    SchedulerConfig
	service StakingTriggers
	log     logger.Logger

	cron *cron.Cron
	stop chan struct{}
}

var _ a.Plugin = &scheduler{}

func New(conf SchedulerConfig, service StakingTriggers, log logger.Logger) *scheduler {
	return &scheduler{
		conf:    conf,
		service: service,
		log:     log,
		cron:    cron.New(),
		stop:    make(chan struct{}),
	}
}

func (s *scheduler) Init() error {
	return nil
}

// nodeInSync gates a cycle on the node's masterchain lag. A node that
// trails the network would act on a stale election state; running
// ahead of it is fine.
func (s *scheduler) nodeInSync(ctx context.Context) bool {
	diff, err := s.service.TimeDiff(ctx)
	if err != nil {
		s.log.Error("node time diff check failed:", err)
		return false
	}
	if diff < -s.conf.Get().AcceptableTimeDiffSec {
		s.log.Info("node is out of sync, time diff", diff)
		return false
	}
	return true
}

func (s *scheduler) sendStake(ctx context.Context) {
	if !s.nodeInSync(ctx) {
		return
	}
	if err := s.service.SendStake(ctx, false); err != nil {
		s.log.Error("scheduled stake submission failed:", err)
	}
}

func (s *scheduler) recoverStake(ctx context.Context) {
	if !s.nodeInSync(ctx) {
		return
	}
	if err := s.service.RecoverStake(ctx); err != nil {
		s.log.Error("scheduled stake recovery failed:", err)
	}
}

func (s *scheduler) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-s.stop
			cancel()
		}()

		c := s.conf.Get()
		for _, job := range []struct {
			spec string
			run  func(context.Context)
		}{
			{c.SendStakeSpec, s.sendStake},
			{c.RecoverStakeSpec, s.recoverStake},
		} {
			run := job.run
			_, err := s.cron.AddFunc(job.spec, func() {
				select {
				case <-s.stop:
				default:
					go run(ctx)
				}
			})
			if err != nil {
				reject(err)
				return
			}
		}

		s.cron.Start()
		resolve(nil)
	})
}

func (s *scheduler) Stop() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.cron.Stop()
	return nil
}
