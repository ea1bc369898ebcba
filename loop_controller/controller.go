package loop_controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	convergence_contracts "github.com/meysamhadeli/loopai/convergence_analyzer/contracts"
	"github.com/meysamhadeli/loopai/diff_applier"
	diff_contracts "github.com/meysamhadeli/loopai/diff_applier/contracts"
	diff_models "github.com/meysamhadeli/loopai/diff_applier/models"
	"github.com/meysamhadeli/loopai/embed_data"
	selector_contracts "github.com/meysamhadeli/loopai/file_selector/contracts"
	selector_models "github.com/meysamhadeli/loopai/file_selector/models"
	"github.com/meysamhadeli/loopai/loop_controller/contracts"
	"github.com/meysamhadeli/loopai/loop_controller/models"
	"github.com/meysamhadeli/loopai/providers"
	provider_contracts "github.com/meysamhadeli/loopai/providers/contracts"
	"github.com/meysamhadeli/loopai/utils"
)

const (
	// DefaultMaxIterations bounds a run when no limit is configured.
	DefaultMaxIterations = 10
	// DefaultProviderTimeout bounds one model call including its retries.
	DefaultProviderTimeout = 5 * time.Minute
	// maxFeedbackBytes caps how much validation output is carried into the
	// next iteration prompt.
	maxFeedbackBytes = 4096
)

// CommandRunner runs a shell command and captures its combined output.
type CommandRunner interface {
	RunCaptured(ctx context.Context, workingDir string, command string) (string, error)
}

// LoopDependencies carries the collaborators one run needs. Executor, Git,
// Session and the callbacks are optional.
type LoopDependencies struct {
	Selector selector_contracts.IFileSelector
	Applier  diff_contracts.IDiffApplier
	Analyzer convergence_contracts.IConvergenceAnalyzer
	Provider provider_contracts.IChatAIProvider
	Executor CommandRunner
	Git      *utils.GitOperations
	Session  *SessionLogger

	// OnIteration fires at the top of every iteration, OnChunk for every
	// streamed content chunk. Confirm gates each apply when set.
	OnIteration func(iteration int)
	OnChunk     func(chunk string)
	Confirm     func(question string) (bool, error)
}

// LoopController sequences selection, the model call, change application and
// convergence checking. Iterations run strictly one after another and the
// controller is the only writer of the working tree for the run's lifetime.
type LoopController struct {
	options      models.LoopOptions
	dependencies LoopDependencies
	systemPrompt string
}

// NewLoopController initializes a new LoopController.
func NewLoopController(options models.LoopOptions, dependencies LoopDependencies) contracts.ILoopController {
	if options.MaxIterations <= 0 {
		options.MaxIterations = DefaultMaxIterations
	}
	if options.ResponseStyle == "" {
		options.ResponseStyle = models.ResponseStyleDiff
	}
	if options.ProviderTimeout <= 0 {
		options.ProviderTimeout = DefaultProviderTimeout
	}

	systemPrompt := string(embed_data.DiffStylePrompt)
	if options.ResponseStyle == models.ResponseStyleWhole {
		systemPrompt = string(embed_data.WholeStylePrompt)
	}

	return &LoopController{
		options:      options,
		dependencies: dependencies,
		systemPrompt: systemPrompt,
	}
}

// Run drives the loop until it converges, oscillates, stalls without
// progress, reaches the iteration limit or is canceled. A hard failure
// returns the partial result together with the error.
func (controller *LoopController) Run(ctx context.Context) (*models.LoopResult, error) {
	options := controller.options
	deps := controller.dependencies

	result := &models.LoopResult{}
	madeProgress := false
	validationFeedback := ""

	for iteration := 1; iteration <= options.MaxIterations; iteration++ {
		if ctx.Err() != nil {
			return controller.finish(result, models.ExitReasonCanceled)
		}

		if deps.OnIteration != nil {
			deps.OnIteration(iteration)
		}

		started := time.Now()

		files, err := deps.Selector.SelectWithContent(selector_models.SelectOptions{
			RootDir:         options.RootDir,
			UseIgnoreFile:   true,
			MaxFiles:        options.MaxFiles,
			MaxContextBytes: options.MaxContextBytes,
			ContentMode:     options.ContentMode,
		})
		if err != nil {
			deps.Session.Error("context selection failed", err)
			return result, fmt.Errorf("failed to select context files: %w", err)
		}

		deps.Session.IterationStarted(iteration, len(files))

		snapshot := make(map[string]string, len(files))
		for _, file := range files {
			snapshot[file.Path] = file.Content
		}
		deps.Analyzer.UpdateTreeSnapshot(snapshot)

		prompt, userInput := controller.buildPrompts(files, validationFeedback)

		requestCtx, cancelRequest := context.WithTimeout(ctx, options.ProviderTimeout)
		response, err := providers.CompleteWithRetry(requestCtx, deps.Provider, userInput, prompt, options.MaxRetries, deps.OnChunk)
		cancelRequest()
		if err != nil {
			if ctx.Err() != nil {
				return controller.finish(result, models.ExitReasonCanceled)
			}
			deps.Session.Error("model request failed", err)
			return result, err
		}

		if deps.Confirm != nil {
			approved, confirmErr := deps.Confirm(controller.confirmQuestion(iteration, response))
			if confirmErr != nil {
				return result, confirmErr
			}
			if !approved {
				return controller.finish(result, models.ExitReasonCanceled)
			}
		}

		var applyResult diff_models.ApplyResult
		switch options.ResponseStyle {
		case models.ResponseStyleWhole:
			applyResult = deps.Applier.ApplyReplacements(response, options.RootDir)
		default:
			applyResult = deps.Applier.ApplyAll(response, options.RootDir)
		}

		deps.Analyzer.RecordIteration(iteration, len(applyResult.FilesModified), applyResult.FilesModified, response)
		if len(applyResult.FilesModified) > 0 {
			madeProgress = true
		}

		outcome := models.IterationOutcome{
			Iteration:     iteration,
			FilesModified: applyResult.FilesModified,
			Errors:        applyResult.Errors,
			ResponseBytes: len(response),
			Duration:      time.Since(started),
		}

		validationFeedback = ""
		var requiredValidationErr error
		if options.ValidateCommand != "" && deps.Executor != nil {
			output, validateErr := deps.Executor.RunCaptured(ctx, options.RootDir, options.ValidateCommand)
			if validateErr != nil {
				outcome.Errors = append(outcome.Errors, fmt.Sprintf("validation command failed: %v", validateErr))
				if options.ValidateRequired {
					requiredValidationErr = fmt.Errorf("validation command failed: %w", validateErr)
				} else {
					validationFeedback = truncateFeedback(output)
				}
			}
		}

		result.Outcomes = append(result.Outcomes, outcome)
		result.Iterations = iteration
		deps.Session.IterationCompleted(outcome)

		if requiredValidationErr != nil {
			deps.Session.Error("required validation command failed", requiredValidationErr)
			return result, requiredValidationErr
		}

		if options.AutoCommit && deps.Git != nil && len(applyResult.FilesModified) > 0 {
			if commitErr := deps.Git.CommitIteration(iteration, len(applyResult.FilesModified)); commitErr != nil {
				deps.Session.Error("iteration commit failed", commitErr)
			}
		}

		verdict := deps.Analyzer.CheckConvergence()
		result.Verdict = verdict
		deps.Session.ConvergenceChecked(verdict)

		if verdict.Converged {
			// A run that never modified a file has stalled, not converged,
			// even though the change history looks settled.
			if !madeProgress {
				return controller.finish(result, models.ExitReasonNoProgress)
			}
			return controller.finish(result, models.ExitReasonConverged)
		}
		if verdict.Oscillation != nil && verdict.Oscillation.Detected {
			return controller.finish(result, models.ExitReasonOscillation)
		}
	}

	return controller.finish(result, models.ExitReasonMaxIterations)
}

func (controller *LoopController) finish(result *models.LoopResult, reason models.ExitReason) (*models.LoopResult, error) {
	result.ExitReason = reason
	controller.dependencies.Session.RunFinished(result)
	return result, nil
}

// buildPrompts assembles the system-side prompt carrying the project context
// and the response-format rules, and the user message carrying the goal plus
// the failing validation output of the previous iteration, if any.
func (controller *LoopController) buildPrompts(files []selector_models.FileContent, validationFeedback string) (string, string) {
	codes := make([]string, 0, len(files))
	for _, file := range files {
		codes = append(codes, fmt.Sprintf("**File: %s**\n\n%s", file.Path, file.Content))
	}
	code := strings.Join(codes, "\n---------\n\n")

	prompt := fmt.Sprintf("%s\n\n______\n%s\n\n______\n", fmt.Sprintf("## Here is the current state of the project files\n\n%s", code), fmt.Sprintf("## Here is the response format you must follow\n\n%s", controller.systemPrompt))

	userInput := fmt.Sprintf("## Here is the goal\n%s", controller.options.Goal)
	if validationFeedback != "" {
		userInput = userInput + fmt.Sprintf("\n\n## Here is the output of the failing validation command from the previous iteration\n\n%s", validationFeedback)
	}

	return prompt, userInput
}

// confirmQuestion builds the interactive approval question. Whole style runs
// include a line diff preview of every proposed replacement.
func (controller *LoopController) confirmQuestion(iteration int, response string) string {
	question := fmt.Sprintf("Apply the changes proposed in iteration %d?", iteration)

	if controller.options.ResponseStyle == models.ResponseStyleWhole {
		replacements := diff_applier.ExtractFileReplacements(response)
		if len(replacements) > 0 {
			preview := diff_applier.RenderReplacementPreview(controller.options.RootDir, replacements)
			question = fmt.Sprintf("%s\n%s", preview, question)
		}
	}

	return question
}

func truncateFeedback(output string) string {
	output = strings.TrimSpace(output)
	if len(output) > maxFeedbackBytes {
		output = output[:maxFeedbackBytes]
	}
	return output
}
