package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	tperrors "github.com/vnykmshr/threadpool/pkg/common/errors"
)

// cronParser accepts standard five-field expressions, an optional leading
// seconds field and descriptors such as "@hourly" or "@every 30s".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseCron parses a cron expression. Examples:
//
//	"0 */2 * * *"     - Every 2 hours
//	"30 14 * * 1-5"   - 2:30 PM on weekdays
//	"*/10 * * * * *"  - Every 10 seconds
//	"@daily"          - Every day at midnight
func ParseCron(expr string) (cron.Schedule, error) {
	if expr == "" {
		return nil, tperrors.NewValidationError("scheduler", "cron", expr, "cannot be empty")
	}
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, tperrors.NewValidationError("scheduler", "cron", expr, err.Error()).
			WithHint("use five fields, six with seconds, or a descriptor like @hourly")
	}
	return schedule, nil
}

// ValidateCronExpression validates a cron expression without scheduling it.
func ValidateCronExpression(expr string) error {
	_, err := ParseCron(expr)
	return err
}

// CronDescription provides human-readable information about a cron expression.
type CronDescription struct {
	Expression  string
	Description string
	NextRuns    []time.Time
	TimeZone    string
}

// DescribeCron returns the next n run times of expr after from.
func DescribeCron(expr string, from time.Time, n int) (CronDescription, error) {
	schedule, err := ParseCron(expr)
	if err != nil {
		return CronDescription{}, err
	}

	nextRuns := make([]time.Time, 0, n)
	current := from
	for i := 0; i < n; i++ {
		current = schedule.Next(current)
		if current.IsZero() {
			break
		}
		nextRuns = append(nextRuns, current)
	}

	return CronDescription{
		Expression:  expr,
		Description: describe(expr),
		NextRuns:    nextRuns,
		TimeZone:    from.Location().String(),
	}, nil
}

func describe(expr string) string {
	switch expr {
	case "@yearly", "@annually":
		return "Once a year (January 1st at midnight)"
	case "@monthly":
		return "Once a month (1st day at midnight)"
	case "@weekly":
		return "Once a week (Sunday at midnight)"
	case "@daily", "@midnight":
		return "Once a day (at midnight)"
	case "@hourly":
		return "Once an hour (at minute 0)"
	}
	return fmt.Sprintf("Custom schedule: %s", expr)
}
