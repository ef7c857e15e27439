package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// RunFunc 一轮采集任务
type RunFunc func()

type Scheduler struct {
	cron *cron.Cron
	run  RunFunc
}

// New 按 cron 表达式周期性执行采集任务
func New(spec string, run RunFunc) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron: c,
		run:  run,
	}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮采集，避免与服务启动时的初始化争抢资源
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.runOnce()
	})
}

func (s *Scheduler) runOnce() {
	log.Println("start scrape job...")
	s.run()
	log.Println("scrape job done")
}
