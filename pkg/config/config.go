// Package config loads pool, metrics and schedule settings from YAML or
// JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	tperrors "github.com/vnykmshr/threadpool/pkg/common/errors"
	"github.com/vnykmshr/threadpool/pkg/common/validation"
	"github.com/vnykmshr/threadpool/pkg/metrics"
	"github.com/vnykmshr/threadpool/pkg/scheduling/scheduler"
	"github.com/vnykmshr/threadpool/pkg/scheduling/workerpool"
)

// File is the structure of a configuration file.
type File struct {
	Pool      PoolSection       `yaml:"pool" json:"pool"`
	Metrics   MetricsSection    `yaml:"metrics" json:"metrics"`
	Schedules []ScheduleSection `yaml:"schedules" json:"schedules"`
}

// PoolSection configures the worker pool.
type PoolSection struct {
	Name      string  `yaml:"name" json:"name"`
	Workers   int     `yaml:"workers" json:"workers"`
	QueueSize int     `yaml:"queue_size" json:"queue_size"`
	TaskRate  float64 `yaml:"task_rate" json:"task_rate"`
	TaskBurst int     `yaml:"task_burst" json:"task_burst"`
}

// MetricsSection configures Prometheus reporting.
type MetricsSection struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
	Listen    string `yaml:"listen" json:"listen"`
}

// ScheduleSection binds a task ID to either a cron expression or an
// interval such as "30s".
type ScheduleSection struct {
	ID    string `yaml:"id" json:"id"`
	Cron  string `yaml:"cron" json:"cron"`
	Every string `yaml:"every" json:"every"`
}

// Interval parses Every.
func (s ScheduleSection) Interval() (time.Duration, error) {
	d, err := time.ParseDuration(s.Every)
	if err != nil {
		return 0, tperrors.NewValidationError("config", "every", s.Every, err.Error())
	}
	if d <= 0 {
		return 0, tperrors.NewValidationError("config", "every", s.Every, "must be positive")
	}
	return d, nil
}

// Load reads and validates a .yaml, .yml or .json file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tperrors.NewOperationError("config", "load", err).WithContext(path)
	}

	f, err := Parse(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return nil, tperrors.NewOperationError("config", "load", err).WithContext(path)
	}
	return f, nil
}

// Parse decodes data in the given format ("yaml", "yml" or "json") and
// validates the result.
func Parse(data []byte, format string) (*File, error) {
	var f File

	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %q", format)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every section.
func (f *File) Validate() error {
	if err := validation.ValidatePositive("config", "pool.workers", f.Pool.Workers); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("config", "pool.queue_size", float64(f.Pool.QueueSize)); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("config", "pool.task_rate", f.Pool.TaskRate); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("config", "pool.task_burst", float64(f.Pool.TaskBurst)); err != nil {
		return err
	}

	seen := make(map[string]bool, len(f.Schedules))
	for _, s := range f.Schedules {
		if err := validation.ValidateNotEmpty("config", "schedules.id", s.ID); err != nil {
			return err
		}
		if seen[s.ID] {
			return tperrors.NewValidationError("config", "schedules.id", s.ID, "duplicate")
		}
		seen[s.ID] = true

		switch {
		case s.Cron != "" && s.Every != "":
			return tperrors.NewValidationError("config", "schedules."+s.ID, s.Cron, "both cron and every set").
				WithHint("keep only one of cron or every")
		case s.Cron != "":
			if err := scheduler.ValidateCronExpression(s.Cron); err != nil {
				return err
			}
		case s.Every != "":
			if _, err := s.Interval(); err != nil {
				return err
			}
		default:
			return tperrors.NewValidationError("config", "schedules."+s.ID, "", "neither cron nor every set")
		}
	}
	return nil
}

// PoolConfig maps the pool section onto a workerpool.Config. Logger,
// namer and hooks are left for the caller to fill in.
func (f *File) PoolConfig() workerpool.Config {
	return workerpool.Config{
		Name:        f.Pool.Name,
		WorkerCount: f.Pool.Workers,
		QueueSize:   f.Pool.QueueSize,
		TaskRate:    f.Pool.TaskRate,
		TaskBurst:   f.Pool.TaskBurst,
	}
}

// MetricsConfig maps the metrics section onto a metrics.Config using reg.
func (f *File) MetricsConfig(reg prometheus.Registerer) metrics.Config {
	return metrics.Config{
		Enabled:   f.Metrics.Enabled,
		Registry:  reg,
		Namespace: f.Metrics.Namespace,
	}
}

// Register schedules tasks[id] for every schedule entry. An entry without
// a matching task is an error. On error no entry of f stays registered.
func (f *File) Register(s scheduler.Scheduler, tasks map[string]workerpool.Task) error {
	registered := make([]string, 0, len(f.Schedules))
	rollback := func(err error) error {
		for _, id := range registered {
			s.Cancel(id)
		}
		return err
	}

	for _, entry := range f.Schedules {
		task, ok := tasks[entry.ID]
		if !ok {
			return rollback(tperrors.NewOperationError("config", "register",
				fmt.Errorf("no task for schedule %q", entry.ID)))
		}

		var err error
		if entry.Cron != "" {
			err = s.ScheduleCron(entry.ID, entry.Cron, task)
		} else {
			var interval time.Duration
			if interval, err = entry.Interval(); err == nil {
				err = s.ScheduleRepeating(entry.ID, task, interval)
			}
		}
		if err != nil {
			return rollback(tperrors.NewOperationError("config", "register", err).WithContext(entry.ID))
		}
		registered = append(registered, entry.ID)
	}
	return nil
}
