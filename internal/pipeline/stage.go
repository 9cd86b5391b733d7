package pipeline

import (
	"context"

	"go.uber.org/zap"

	"pipegate/internal/config"
)

// FailurePolicy decides what a stage failure does to the run.
type FailurePolicy int

const (
	// Abort stops the pipeline immediately with a non-zero outcome.
	Abort FailurePolicy = iota
	// Warn logs the failure and lets the pipeline continue.
	Warn
)

// Deps contains dependencies injected into stages.
type Deps struct {
	Config config.Config
	Log    *zap.Logger
}

// Stage is one unit of the pipeline.
type Stage interface {
	// Name returns the unique stage identifier (e.g. "coverage").
	Name() string

	// OnFailure returns the policy applied when Run reports a failure.
	OnFailure() FailurePolicy

	// Run executes the stage. It must not panic; failures are results.
	Run(ctx context.Context, deps *Deps) StageResult
}
