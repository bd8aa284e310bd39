package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/clock"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/estimator"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/siteadapter"
	_ "github.com/MaxITService/OneClickPrompts-sub000/internal/siteadapter/sites"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/tokenmodel"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/ui"
)

var runSiteFlag string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive queue TUI against a simulated chat site",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSiteFlag, "site", string(siteadapter.SiteChatGPT),
		"simulated site to dispatch to (chatgpt, claude, copilot, deepseek, aistudio, grok, gemini, perplexity)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cleanup := maybeInitLogging()
	defer cleanup()

	store, bus, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	activeProfile, err := store.GetConfig()
	if err != nil {
		return fmt.Errorf("load active profile: %w", err)
	}
	globalSettings, err := store.GetGlobalSettings()
	if err != nil {
		return fmt.Errorf("load global settings: %w", err)
	}

	site := siteadapter.Site(runSiteFlag)
	if !siteadapter.IsRegistered(site) {
		return fmt.Errorf("unknown site %q", runSiteFlag)
	}

	registry := tokenmodel.NewDefaultRegistry()
	worker := estimator.New(registry)
	defer worker.Close()

	model, err := ui.New(store, bus, clock.Real{}, site, activeProfile, worker, globalSettings.TokenApproximator, registry)
	if err != nil {
		return fmt.Errorf("build ui: %w", err)
	}
	defer model.Close()

	zone.NewGlobal()
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
