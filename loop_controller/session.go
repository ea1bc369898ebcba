package loop_controller

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	convergence_models "github.com/meysamhadeli/loopai/convergence_analyzer/models"
	"github.com/meysamhadeli/loopai/loop_controller/models"
)

const sessionDirName = ".loopai/sessions"

// SessionLogger appends structured events for one run to a JSONL file under
// the working tree. A nil *SessionLogger is valid and drops every event, so
// callers never have to guard their logging calls.
type SessionLogger struct {
	logger *zap.Logger
	runID  string
	path   string
}

// NewSessionLogger creates the session directory under rootDir and opens a
// log file named after a fresh run id.
func NewSessionLogger(rootDir string) (*SessionLogger, error) {
	sessionDir := filepath.Join(rootDir, filepath.FromSlash(sessionDirName))
	if err := os.MkdirAll(sessionDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	runID := uuid.New().String()
	path := filepath.Join(sessionDir, runID+".jsonl")

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session logger: %w", err)
	}

	logger.Info("session started", zap.String("run_id", runID), zap.String("root_dir", rootDir))

	return &SessionLogger{logger: logger, runID: runID, path: path}, nil
}

// RunID returns the identifier embedded in the session file name.
func (s *SessionLogger) RunID() string {
	if s == nil {
		return ""
	}
	return s.runID
}

// Path returns the absolute path of the session file.
func (s *SessionLogger) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *SessionLogger) IterationStarted(iteration int, contextFiles int) {
	if s == nil {
		return
	}
	s.logger.Info("iteration started",
		zap.Int("iteration", iteration),
		zap.Int("context_files", contextFiles),
	)
}

func (s *SessionLogger) IterationCompleted(outcome models.IterationOutcome) {
	if s == nil {
		return
	}
	s.logger.Info("iteration completed",
		zap.Int("iteration", outcome.Iteration),
		zap.Strings("files_modified", outcome.FilesModified),
		zap.Strings("errors", outcome.Errors),
		zap.Int("response_bytes", outcome.ResponseBytes),
		zap.Duration("duration", outcome.Duration),
	)
}

func (s *SessionLogger) ConvergenceChecked(verdict convergence_models.ConvergenceVerdict) {
	if s == nil {
		return
	}
	s.logger.Info("convergence checked",
		zap.Bool("converged", verdict.Converged),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("reason", verdict.Reason),
	)
}

func (s *SessionLogger) RunFinished(result *models.LoopResult) {
	if s == nil {
		return
	}
	s.logger.Info("run finished",
		zap.Int("iterations", result.Iterations),
		zap.String("exit_reason", string(result.ExitReason)),
		zap.Float64("confidence", result.Verdict.Confidence),
	)
}

func (s *SessionLogger) Error(message string, err error) {
	if s == nil {
		return
	}
	s.logger.Error(message, zap.Error(err))
}

// Close flushes buffered log entries. Safe on a nil receiver.
func (s *SessionLogger) Close() {
	if s == nil || s.logger == nil {
		return
	}
	_ = s.logger.Sync()
}
