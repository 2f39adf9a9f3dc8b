// Package models defines the core domain models for store provisioning runs.
package models

import (
	"context"
	"time"
)

// StepStatus represents the outcome of a single build step.
type StepStatus string

const (
	StepSucceeded       StepStatus = "succeeded"        // Step completed without error
	StepSkippedExisting StepStatus = "skipped_existing" // Target resource already existed
	StepFailed          StepStatus = "failed"           // Step failed with a non-conflict error
)

// BuildStep is one named, orderable unit of remote store configuration.
// Steps execute in declared order; a step's Run may assume all predecessors
// completed, successfully or with a tolerated conflict.
type BuildStep struct {
	Name string
	Run  func(ctx context.Context) error
}

// BuildResult records the outcome of one step in one run. Immutable once
// appended to a report.
type BuildResult struct {
	StepName string     `json:"step_name"`
	Status   StepStatus `json:"status"`
	Error    string     `json:"error,omitempty"`

	// Err carries the underlying error for callers inside the process;
	// Error above is its message for the serialized report.
	Err error `json:"-"`
}

// BuildReport is the ordered sequence of step outcomes for one build run.
type BuildReport struct {
	RunID      string        `json:"run_id"`
	Shop       string        `json:"shop"`
	Results    []BuildResult `json:"results"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Append records a step outcome in order.
func (r *BuildReport) Append(result BuildResult) {
	r.Results = append(r.Results, result)
}

// Find returns the result for the named step.
func (r *BuildReport) Find(stepName string) (BuildResult, bool) {
	for _, result := range r.Results {
		if result.StepName == stepName {
			return result, true
		}
	}

	return BuildResult{}, false
}

// Failed returns the results of steps that failed with a non-conflict error.
func (r *BuildReport) Failed() []BuildResult {
	var failed []BuildResult

	for _, result := range r.Results {
		if result.Status == StepFailed {
			failed = append(failed, result)
		}
	}

	return failed
}

// Succeeded reports whether every step either succeeded or was skipped as
// already existing.
func (r *BuildReport) Succeeded() bool {
	return len(r.Failed()) == 0
}
