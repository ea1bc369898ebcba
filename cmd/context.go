package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meysamhadeli/loopai/constants/lipgloss"
	selector_models "github.com/meysamhadeli/loopai/file_selector/models"
)

// contextCmd: loopai context
var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show the files the loop would send to the model",
	Long: `The 'context' subcommand runs file selection with the configured budgets and
prints the resulting file set in selection order, so the context window the
model would receive can be inspected without starting a run. With --stats it
prints figures for the eligible tree before budget truncation instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		stats, _ := cmd.Flags().GetBool("stats")

		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}

		handleContextCommand(rootDependencies, stats)
	},
}

func init() {
	contextCmd.Flags().BoolP("stats", "s", false, "Show eligible tree statistics instead of the selection")

	rootCmd.AddCommand(contextCmd)
}

func handleContextCommand(rootDependencies *RootDependencies, showStats bool) {
	options := selector_models.SelectOptions{
		RootDir:         rootDependencies.Cwd,
		UseIgnoreFile:   true,
		MaxFiles:        rootDependencies.Config.Selector.MaxFiles,
		MaxContextBytes: rootDependencies.Config.Selector.MaxContextBytes,
		ContentMode:     rootDependencies.Config.Selector.ContentMode,
	}

	if showStats {
		treeStats, err := rootDependencies.Selector.Stats(options)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error gathering selector statistics: %v", err)))
			return
		}

		fmt.Println(lipgloss.Info.Render("Selector Statistics:"))
		fmt.Printf("  Eligible Files: %d\n", treeStats.FileCount)
		fmt.Printf("  Total Size: %.2f KB\n", float64(treeStats.TotalSize)/1024)
		fmt.Printf("  Average Size: %.2f KB\n", float64(treeStats.AverageSize)/1024)
		return
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Selecting context files...")
	files, err := rootDependencies.Selector.Select(options)
	spinnerInstance.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error selecting context files: %v", err)))
		return
	}
	if len(files) == 0 {
		fmt.Println(lipgloss.Yellow.Render("No files selected. Check the include patterns and the ignore file."))
		return
	}

	fmt.Println(lipgloss.Info.Render("Selected context files:"))
	var totalBytes int64
	for _, file := range files {
		totalBytes += file.Size
		fmt.Printf("  %6d  %8.2f KB  %s\n", file.Priority, float64(file.Size)/1024, file.Path)
	}

	fmt.Println(lipgloss.Gray.Render(fmt.Sprintf(
		"%d files, %.2f KB (budget: %d files, %.2f KB)",
		len(files), float64(totalBytes)/1024,
		options.MaxFiles, float64(options.MaxContextBytes)/1024,
	)))
}
