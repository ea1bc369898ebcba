package utils

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// CommandExecutor runs the configured validation command between iterations.
type CommandExecutor struct {
}

// NewCommandExecutor creates a new command executor instance
func NewCommandExecutor() *CommandExecutor {
	return &CommandExecutor{}
}

// RunCaptured executes a shell command and returns its combined output. The
// output is returned even when the command fails so callers can feed build
// and test failures back into the next iteration prompt.
func (ce *CommandExecutor) RunCaptured(ctx context.Context, workingDir string, command string) (string, error) {
	if command == "" {
		return "", fmt.Errorf("empty command provided")
	}

	if err := ce.validateCommand(command); err != nil {
		return "", fmt.Errorf("command validation failed: %v", err)
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "bash", "-c", command)
	}
	cmd.Dir = workingDir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("command execution failed: %v", err)
	}

	return string(output), nil
}

// validateCommand performs security checks on the proposed command
func (ce *CommandExecutor) validateCommand(command string) error {
	// List of dangerous commands/patterns to reject
	dangerousPatterns := []string{
		"rm -rf /",
		":(){ :|:& };:", // Fork bomb
		"> /dev/sda",    // Disk overwrite
		"wipefs",
		"fdisk",
		"mkfs",
		"dd if=",
	}

	cmdLower := strings.ToLower(command)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(cmdLower, strings.ToLower(pattern)) {
			return fmt.Errorf("potentially dangerous command detected: %s", pattern)
		}
	}

	return nil
}
