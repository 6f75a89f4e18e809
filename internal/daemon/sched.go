package daemon

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// startSchedules registers every [[schedule]] entry with a cron
// runner. Each firing is an ordinary submission: it gets a run id,
// goes through the pool, and lands in the ledger like any other
// job.
func (d *Daemon) startSchedules() (*cron.Cron, error) {
	c := cron.New()
	for _, entry := range d.Config.Schedules {
		entry := entry
		if entry.Task == "" || entry.Cron == "" {
			return nil, fmt.Errorf("schedule entry needs both task and cron: %+v", entry)
		}
		_, err := c.AddFunc(entry.Cron, func() {
			runID, _, err := d.Submit(entry.Task, entry.Args...)
			if err != nil {
				d.log.Error("scheduled submission failed",
					zap.String("task", entry.Task),
					zap.Error(err),
				)
				return
			}
			d.log.Debug("scheduled job submitted",
				zap.String("task", entry.Task),
				zap.String("run_id", runID),
			)
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %q for task %q: %w", entry.Cron, entry.Task, err)
		}
	}
	c.Start()
	return c, nil
}
