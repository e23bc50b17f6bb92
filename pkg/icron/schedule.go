package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// NextTrigger reports when cronExpr fires next after refTime. Standard
// five-field expressions and descriptors like @hourly are accepted.
func NextTrigger(cronExpr string, refTime time.Time) (time.Time, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom |
		cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule.Next(refTime), nil
}
