package models

import (
	"time"

	convergence_models "github.com/meysamhadeli/loopai/convergence_analyzer/models"
)

// ResponseStyle selects the change format the model is asked to produce.
type ResponseStyle string

const (
	// ResponseStyleDiff asks for unified diffs in fenced diff blocks.
	ResponseStyleDiff ResponseStyle = "diff"
	// ResponseStyleWhole asks for complete file contents per changed file.
	ResponseStyleWhole ResponseStyle = "whole"
)

// ExitReason tells why a loop run stopped.
type ExitReason string

const (
	ExitReasonConverged     ExitReason = "converged"
	ExitReasonOscillation   ExitReason = "oscillation"
	ExitReasonNoProgress    ExitReason = "no_progress"
	ExitReasonMaxIterations ExitReason = "max_iterations"
	ExitReasonCanceled      ExitReason = "canceled"
)

// LoopOptions configures one loop run over a working tree.
type LoopOptions struct {
	RootDir          string
	Goal             string
	MaxIterations    int
	ResponseStyle    ResponseStyle
	AutoCommit       bool
	ValidateCommand  string
	ValidateRequired bool
	ProviderTimeout  time.Duration
	MaxRetries       int
	MaxFiles         int
	MaxContextBytes  int64
	ContentMode      string
}

// IterationOutcome is the record of one completed iteration.
type IterationOutcome struct {
	Iteration     int
	FilesModified []string
	Errors        []string
	ResponseBytes int
	Duration      time.Duration
}

// LoopResult is the final outcome of a run.
type LoopResult struct {
	Iterations int
	ExitReason ExitReason
	Verdict    convergence_models.ConvergenceVerdict
	Outcomes   []IterationOutcome
}
