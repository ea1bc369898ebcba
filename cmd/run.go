package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meysamhadeli/loopai/constants/lipgloss"
	"github.com/meysamhadeli/loopai/loop_controller"
	loop_models "github.com/meysamhadeli/loopai/loop_controller/models"
	"github.com/meysamhadeli/loopai/utils"
)

// GoalFileName is the file the goal is read from at the root of the project.
const GoalFileName = "PROMPT.md"

// runCmd: loopai run
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the iteration loop against the current directory.",
	Long: `The 'run' subcommand reads the goal from PROMPT.md in the working directory
and then iterates: select a context-budgeted file set, ask the model for
edits, apply them to the tree and check for convergence. The loop stops when
the tree settles, starts oscillating, makes no progress or hits the iteration
limit.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		handleRunCommand(rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func handleRunCommand(rootDependencies *RootDependencies) {
	// Create a context with cancel function
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	goal, err := readGoal(rootDependencies)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
	if goal == "" {
		fmt.Println(lipgloss.Yellow.Render("Empty goal, nothing to do."))
		return
	}

	session, err := loop_controller.NewSessionLogger(rootDependencies.Cwd)
	if err != nil {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Session log disabled: %v", err)))
		session = nil
	} else {
		defer session.Close()
		fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("Session log: %s", session.Path())))
	}

	go utils.GracefulShutdown(ctx, cancel, func() {
		session.Close()
	})

	var gitOperations *utils.GitOperations
	if rootDependencies.Config.Loop.AutoCommit {
		gitOperations = utils.NewGitOperations(rootDependencies.Cwd)
		if err := gitOperations.CheckGitRepo(); err != nil {
			fmt.Println(lipgloss.Yellow.Render("Auto-commit disabled: the working directory is not a git repository."))
			gitOperations = nil
		} else if branch, branchErr := gitOperations.GetBranchName(); branchErr == nil {
			fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("Auto-commit enabled on branch '%s'", branch)))
		}
	}

	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf(
		"Goal: %s\nProvider: %s (%s)\nStyle: %s, up to %d iterations",
		firstGoalLine(goal),
		rootDependencies.Config.AIProviderConfig.Provider,
		rootDependencies.Config.AIProviderConfig.Model,
		rootDependencies.Config.Loop.ResponseStyle,
		rootDependencies.Config.Loop.MaxIterations,
	)))

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	markdownRenderer := utils.NewMarkdownRenderer(rootDependencies.Config.Theme)

	var activeSpinner *pterm.SpinnerPrinter
	firstChunk := true

	dependencies := loop_controller.LoopDependencies{
		Selector: rootDependencies.Selector,
		Applier:  rootDependencies.Applier,
		Analyzer: rootDependencies.Analyzer,
		Provider: rootDependencies.CurrentChatProvider,
		Executor: utils.NewCommandExecutor(),
		Git:      gitOperations,
		Session:  session,
		OnIteration: func(iteration int) {
			if activeSpinner != nil {
				activeSpinner.Stop()
			}
			if iteration > 1 {
				rootDependencies.TokenManagement.DisplayTokens(
					rootDependencies.Config.AIProviderConfig.Provider,
					rootDependencies.Config.AIProviderConfig.Model,
				)
			}
			fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Iteration %d", iteration)))
			activeSpinner, _ = spinner.Start(thinkingText(rootDependencies.Config.AIProviderConfig.Provider))
			firstChunk = true
		},
		OnChunk: func(chunk string) {
			if firstChunk {
				if activeSpinner != nil {
					activeSpinner.Stop()
					activeSpinner = nil
				}
				fmt.Print("\n")
				firstChunk = false
			}
			_ = markdownRenderer.RenderChunk(chunk)
		},
	}

	if rootDependencies.Config.Loop.Interactive {
		reader := bufio.NewReader(os.Stdin)
		dependencies.Confirm = func(question string) (bool, error) {
			return utils.ConfirmPrompt(reader, question)
		}
	}

	loopOptions := loop_models.LoopOptions{
		RootDir:          rootDependencies.Cwd,
		Goal:             goal,
		MaxIterations:    rootDependencies.Config.Loop.MaxIterations,
		ResponseStyle:    loop_models.ResponseStyle(rootDependencies.Config.Loop.ResponseStyle),
		AutoCommit:       rootDependencies.Config.Loop.AutoCommit,
		ValidateCommand:  rootDependencies.Config.Loop.ValidateCommand,
		ValidateRequired: rootDependencies.Config.Loop.ValidateRequired,
		ProviderTimeout:  rootDependencies.Config.Loop.ProviderTimeout,
		MaxRetries:       rootDependencies.Config.AIProviderConfig.MaxRetries,
		MaxFiles:         rootDependencies.Config.Selector.MaxFiles,
		MaxContextBytes:  rootDependencies.Config.Selector.MaxContextBytes,
		ContentMode:      rootDependencies.Config.Selector.ContentMode,
	}

	controller := loop_controller.NewLoopController(loopOptions, dependencies)
	result, runErr := controller.Run(ctx)

	if activeSpinner != nil {
		activeSpinner.Stop()
	}

	if runErr != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", runErr)))
	}
	if result != nil {
		printRunSummary(result)
	}

	rootDependencies.TokenManagement.DisplayTokens(
		rootDependencies.Config.AIProviderConfig.Provider,
		rootDependencies.Config.AIProviderConfig.Model,
	)

	if runErr != nil {
		os.Exit(1)
	}
}

// readGoal loads the goal from PROMPT.md. When the file is missing, the
// interactive mode falls back to asking for the goal on stdin; the autonomous
// mode treats it as a startup failure.
func readGoal(rootDependencies *RootDependencies) (string, error) {
	goalPath := filepath.Join(rootDependencies.Cwd, GoalFileName)

	content, err := os.ReadFile(goalPath)
	if err == nil {
		return strings.TrimSpace(string(content)), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read %s: %v", GoalFileName, err)
	}

	if rootDependencies.Config.Loop.Interactive {
		fmt.Println(lipgloss.Info.Render(fmt.Sprintf("No %s found, describe the goal for this run:", GoalFileName)))
		return utils.InputPrompt(bufio.NewReader(os.Stdin))
	}

	return "", fmt.Errorf("no %s found in %s: create one with the goal for this run", GoalFileName, rootDependencies.Cwd)
}

func firstGoalLine(goal string) string {
	line := strings.SplitN(goal, "\n", 2)[0]
	if len(line) > 80 {
		line = line[:80] + "..."
	}
	return line
}

func thinkingText(providerName string) string {
	switch strings.ToLower(providerName) {
	case "openai":
		return "ChatGPT is working on the goal..."
	case "ollama":
		return "Local model is working on the goal..."
	default:
		return "The model is working on the goal..."
	}
}

func printRunSummary(result *loop_models.LoopResult) {
	switch result.ExitReason {
	case loop_models.ExitReasonConverged:
		fmt.Println(lipgloss.Green.Render("✓ The loop converged."))
	case loop_models.ExitReasonOscillation:
		fmt.Println(lipgloss.Yellow.Render("The loop started oscillating between tree states."))
	case loop_models.ExitReasonNoProgress:
		fmt.Println(lipgloss.Yellow.Render("The model proposed no applicable changes."))
	case loop_models.ExitReasonMaxIterations:
		fmt.Println(lipgloss.Yellow.Render("Iteration limit reached before convergence."))
	case loop_models.ExitReasonCanceled:
		fmt.Println(lipgloss.Yellow.Render("Run canceled."))
	}

	exitReason := string(result.ExitReason)
	if exitReason == "" {
		exitReason = "aborted"
	}

	verdictReason := result.Verdict.Reason
	if verdictReason == "" {
		verdictReason = "no verdict"
	}

	filesTouched := 0
	for _, outcome := range result.Outcomes {
		filesTouched += len(outcome.FilesModified)
	}

	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf(
		"Iterations: %d\nExit reason: %s\nConfidence: %.2f (%s)\nFile changes: %d",
		result.Iterations, exitReason, result.Verdict.Confidence, verdictReason, filesTouched,
	)))
}
