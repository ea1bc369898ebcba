package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meysamhadeli/loopai/config"
	"github.com/meysamhadeli/loopai/constants/lipgloss"
	"github.com/meysamhadeli/loopai/file_selector"
	"github.com/meysamhadeli/loopai/utils"
)

// resetCacheCmd: loopai reset-cache
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the selector cache for loopai",
	Long: `The 'reset-cache' subcommand removes the cached file contents and summaries
under the project '.loopai/cache' directory and drops the in-process
configuration cache. Use it when the cache looks stale or corrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")

		handleResetCacheCommand(force, stats, cmd)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Reset the cache without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of resetting")

	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(force bool, showStats bool, cmd *cobra.Command) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}

	cacheDir := filepath.Join(rootDependencies.Cwd, ".loopai", "cache")
	cacheManager, err := file_selector.NewCacheManager(cacheDir)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error opening cache: %v", err)))
		return
	}

	if showStats {
		files, totalBytes, usageErr := cacheManager.Usage()
		if usageErr != nil {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: could not read cache statistics: %v", usageErr)))
			return
		}
		fmt.Println(lipgloss.Info.Render("Cache Statistics:"))
		fmt.Printf("  Cache Directory: %s\n", cacheDir)
		fmt.Printf("  Cached Files: %d\n", files)
		fmt.Printf("  Total Size: %.2f MB\n", float64(totalBytes)/(1024*1024))
		return
	}

	if !force {
		approved, confirmErr := utils.ConfirmPrompt(bufio.NewReader(os.Stdin), "Are you sure you want to reset the project cache?")
		if confirmErr != nil || !approved {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Resetting project cache...")

	err = cacheManager.Clear()
	config.ClearConfigCache()
	utils.ClearIgnoreCache()

	spinnerInstance.Stop()
	fmt.Print("\r")
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error resetting cache: %v", err)))
		return
	}

	fmt.Println(lipgloss.Green.Render("✓ Project cache has been successfully reset!"))
}
