package payroll

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
	// payroll timezones resolve on hosts without a zoneinfo database
	_ "time/tzdata"

	"cosmossdk.io/log"
	"github.com/gammazero/workerpool"
	"github.com/robfig/cron/v3"

	"github.com/strangelove-ventures/cctp-payroll/metrics"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

const (
	DefaultCron     = "0 0 * * *"
	DefaultTimezone = "Africa/Lagos"
)

type Stop struct {
	OrganisationID string     `json:"organisation_id"`
	EmployeeID     string     `json:"employee_id"`
	Reason         StopReason `json:"reason"`
}

// Summary reports a payroll run across organisations.
type Summary struct {
	Organisations int      `json:"organisations"`
	Disbursed     int      `json:"disbursed"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	Stopped       []Stop   `json:"stopped,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

func (s *Summary) add(res Result) {
	s.Organisations++
	s.Disbursed += res.Disbursed
	s.Skipped += res.Skipped
	s.Failed += res.Failed
	if res.StopReason != "" {
		s.Stopped = append(s.Stopped, Stop{
			OrganisationID: res.OrganisationID,
			EmployeeID:     res.StoppedAt,
			Reason:         res.StopReason,
		})
	}
}

// Scheduler fires payroll once a day and on demand. Organisations are run in
// parallel, bounded by the worker count.
type Scheduler struct {
	runner    *Runner
	directory Directory
	logger    log.Logger
	metrics   *metrics.PromMetrics
	workers   int

	cron *cron.Cron
}

func NewScheduler(runner *Runner, directory Directory, settings types.PayrollSettings, logger log.Logger, m *metrics.PromMetrics) (*Scheduler, error) {
	tz := settings.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid payroll timezone %q: %w", tz, err)
	}
	spec := settings.Cron
	if spec == "" {
		spec = DefaultCron
	}

	s := &Scheduler{
		runner:    runner,
		directory: directory,
		logger:    logger,
		metrics:   m,
		workers:   settings.WorkerCount,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
	if s.workers <= 0 {
		s.workers = 1
	}

	if _, err := s.cron.AddFunc(spec, s.fire); err != nil {
		return nil, fmt.Errorf("invalid payroll cron %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) fire() {
	s.logger.Info("Running scheduled payroll")
	summary, err := s.run(context.Background(), "cron")
	if err != nil {
		s.logger.Error("Scheduled payroll failed", "err", err)
		return
	}
	s.logger.Info("Scheduled payroll complete",
		"organisations", summary.Organisations,
		"disbursed", summary.Disbursed,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
}

// Start begins firing on the schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule. The returned context is done once a running payroll finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Next returns the next scheduled firing.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(time.Now())
}

// RunNow runs payroll immediately through the same path as a scheduled firing.
func (s *Scheduler) RunNow(ctx context.Context) (Summary, error) {
	return s.run(ctx, "manual")
}

func (s *Scheduler) run(ctx context.Context, trigger string) (Summary, error) {
	s.metrics.IncPayrollRun(trigger)

	orgs, err := s.directory.ListPayableOrganisations(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("unable to list organisations: %w", err)
	}

	var (
		mu      sync.Mutex
		summary Summary
	)
	wp := workerpool.New(s.workers)
	for _, org := range orgs {
		org := org
		if ctx.Err() != nil {
			break
		}
		wp.Submit(func() {
			res, err := s.runner.RunOrganisation(ctx, s.logger, org)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("Payroll failed for organisation", "organisation", org.ID, "err", err)
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", org.ID, err))
			}
			summary.add(res)
		})
	}
	wp.StopWait()

	sort.Slice(summary.Stopped, func(i, j int) bool {
		return summary.Stopped[i].OrganisationID < summary.Stopped[j].OrganisationID
	})
	sort.Strings(summary.Errors)
	return summary, ctx.Err()
}
