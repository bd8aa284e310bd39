package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/estimator"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/tokenmodel"
)

var (
	estimateModelFlag string
	estimateScaleFlag float64
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "One-shot token estimate of stdin using a TokenModelRegistry model",
	RunE:  runEstimate,
}

func init() {
	estimateCmd.Flags().StringVar(&estimateModelFlag, "model", "",
		"model id (simple, advanced, cpt-blend-mix, single-regex-pass, ultralight-state-machine); empty uses the default model, legacy names resolved")
	estimateCmd.Flags().Float64Var(&estimateScaleFlag, "scale", 1, "calibration scale applied to the raw estimate")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	registry := tokenmodel.NewDefaultRegistry()

	raw, err := io.ReadAll(bufio.NewReader(cmd.InOrStdin()))
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	modelID := registry.ResolveModelID(estimateModelFlag)
	worker := estimator.New(registry, estimator.WithRunInline(true))
	defer worker.Close()

	out := worker.Estimate(context.Background(), estimator.Input{
		Texts:          estimator.Texts{All: string(raw), ThreadOnly: string(raw), EditorsOnly: ""},
		Scale:          estimateScaleFlag,
		CountingMethod: modelID,
	})
	if !out.OK {
		return fmt.Errorf("estimate: %w", out.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "model: %s\nestimate: %d\n", out.ModelUsed, out.Estimates.All)
	return nil
}
