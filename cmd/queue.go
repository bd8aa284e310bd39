package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/clock"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/queueitem"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/orchestration/queue"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/siteadapter"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/siteadapter/simulated"
	_ "github.com/MaxITService/OneClickPrompts-sub000/internal/siteadapter/sites"
)

var (
	queueSiteFlag  string
	queueTextsFlag []string
	queueIconFlag  string
	queueFaultFlag string
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Headlessly enqueue and dispatch prompts against a simulated site",
	Long: `Drives the QueueScheduler against the active profile's delay
configuration without a TUI, for scripting and CI smoke tests. Each --text
flag enqueues one item; the command blocks until every item has been
dispatched (or a dispatch fails) and then exits.`,
	RunE: runQueue,
}

func init() {
	queueCmd.Flags().StringVar(&queueSiteFlag, "site", string(siteadapter.SiteChatGPT), "simulated site to dispatch to")
	queueCmd.Flags().StringArrayVar(&queueTextsFlag, "text", nil, "prompt text to enqueue (repeatable)")
	queueCmd.Flags().StringVar(&queueIconFlag, "icon", "✨", "icon captured on each enqueued item")
	queueCmd.Flags().StringVar(&queueFaultFlag, "fault", "none", "inject a simulated adapter fault: none, not_found, blocked, manual")
	rootCmd.AddCommand(queueCmd)
}

func parseFaultMode(s string) (simulated.FaultMode, error) {
	switch s {
	case "", "none":
		return simulated.FaultNone, nil
	case "not_found":
		return simulated.FaultNotFound, nil
	case "blocked":
		return simulated.FaultBlocked, nil
	case "manual":
		return simulated.FaultManual, nil
	default:
		return simulated.FaultNone, fmt.Errorf("unknown fault mode %q", s)
	}
}

func runQueue(cmd *cobra.Command, args []string) error {
	cleanup := maybeInitLogging()
	defer cleanup()

	if len(queueTextsFlag) == 0 {
		return fmt.Errorf("at least one --text is required")
	}

	store, _, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	activeProfile, err := store.GetConfig()
	if err != nil {
		return fmt.Errorf("load active profile: %w", err)
	}

	site := siteadapter.Site(queueSiteFlag)
	if !siteadapter.IsRegistered(site) {
		return fmt.Errorf("unknown site %q", queueSiteFlag)
	}
	adapterImpl, err := siteadapter.New(site)
	if err != nil {
		return err
	}
	simAdapter, ok := adapterImpl.(*simulated.Adapter)
	if !ok {
		return fmt.Errorf("site %q does not have a simulated adapter", queueSiteFlag)
	}
	fault, err := parseFaultMode(queueFaultFlag)
	if err != nil {
		return err
	}
	simAdapter.SetFault(fault)

	model := queueitem.New()
	done := make(chan struct{})
	var failure string
	sched := queue.New(model, clock.Real{}, simAdapter,
		queue.DelayConfigFromProfile(activeProfile), queue.TogglesFromProfile(activeProfile),
		queue.WithOnError(func(reason string) {
			failure = reason
			close(done)
		}),
		queue.WithOnUpdate(func() {
			if model.Finished() {
				select {
				case <-done:
				default:
					close(done)
				}
			}
		}),
	)
	defer sched.Close()

	for _, text := range queueTextsFlag {
		if _, err := sched.Enqueue(queueIconFlag, text, true); err != nil {
			return fmt.Errorf("enqueue %q: %w", text, err)
		}
	}

	start := time.Now()
	sched.Start()
	<-done

	for _, sent := range simAdapter.Sent() {
		fmt.Fprintf(cmd.OutOrStdout(), "sent: %s\n", sent)
	}
	if failure != "" {
		return fmt.Errorf("queue stopped: %s", failure)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "queue finished in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
