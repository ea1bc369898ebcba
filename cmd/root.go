package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meysamhadeli/loopai/config"
	"github.com/meysamhadeli/loopai/constants/lipgloss"
	"github.com/meysamhadeli/loopai/convergence_analyzer"
	convergence_contracts "github.com/meysamhadeli/loopai/convergence_analyzer/contracts"
	"github.com/meysamhadeli/loopai/diff_applier"
	diff_contracts "github.com/meysamhadeli/loopai/diff_applier/contracts"
	"github.com/meysamhadeli/loopai/file_selector"
	selector_contracts "github.com/meysamhadeli/loopai/file_selector/contracts"
	"github.com/meysamhadeli/loopai/providers"
	provider_contracts "github.com/meysamhadeli/loopai/providers/contracts"
	"github.com/meysamhadeli/loopai/token_management"
	token_contracts "github.com/meysamhadeli/loopai/token_management/contracts"
)

// RootDependencies holds the collaborators constructed once per command.
type RootDependencies struct {
	Config              *config.Config
	Cwd                 string
	Selector            selector_contracts.IFileSelector
	Applier             diff_contracts.IDiffApplier
	Analyzer            convergence_contracts.IConvergenceAnalyzer
	TokenManagement     token_contracts.ITokenManagement
	CurrentChatProvider provider_contracts.IChatAIProvider
}

// rootCmd: loopai
var rootCmd = &cobra.Command{
	Use:   "loopai",
	Short: "Run an autonomous edit loop over your project until it converges.",
	Long: `loopai repeatedly sends a context-budgeted snapshot of your project together
with a fixed goal to an AI model, applies the proposed edits to the working
tree and stops when the tree settles, starts oscillating or the iteration
limit is reached.`,
	Run: func(cmd *cobra.Command, args []string) {
		if versionFlag, _ := cmd.Flags().GetBool("version"); versionFlag {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

// Execute runs the root command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
}

// handleRootCommand loads the configuration and builds the dependencies every
// subcommand shares. A nil return means startup already failed and the error
// was printed.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}

	rootDependencies := &RootDependencies{}
	rootDependencies.Cwd = cwd
	rootDependencies.Config = config.LoadConfigWithCache(cmd.Root(), cwd)
	rootDependencies.Selector = file_selector.NewFileSelector(cwd)
	rootDependencies.Applier = diff_applier.NewDiffApplier(0)
	rootDependencies.Analyzer = convergence_analyzer.NewConvergenceAnalyzer()
	rootDependencies.TokenManagement = token_management.NewTokenManager()

	currentChatProvider, err := providers.ChatProviderFactory(rootDependencies.Config.AIProviderConfig, rootDependencies.TokenManagement)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return nil
	}
	rootDependencies.CurrentChatProvider = currentChatProvider

	return rootDependencies
}
