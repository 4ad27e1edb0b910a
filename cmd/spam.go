package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/deliveryeta/app"
	"github.com/kilianp07/deliveryeta/core/delivery"
	"github.com/kilianp07/deliveryeta/core/model"
	"github.com/kilianp07/deliveryeta/infra/logger"
	"github.com/kilianp07/deliveryeta/pkg/loadgen"
)

var spamCfg loadgen.Config

var spamCmd = &cobra.Command{
	Use:   "spam",
	Short: "Send synthetic prediction requests to a running server",
	RunE:  runSpam,
}

func init() {
	spamCmd.Flags().IntVarP(&spamCfg.Count, "count", "n", 100, "requests to send")
	spamCmd.Flags().StringVarP(&spamCfg.Target, "target", "t", "http://localhost:8080", "server base URL")
	spamCmd.Flags().IntVar(&spamCfg.Concurrency, "concurrency", 4, "parallel requests")
	spamCmd.Flags().DurationVar(&spamCfg.Timeout, "timeout", 10*time.Second, "per request timeout")
	rootCmd.AddCommand(spamCmd)
}

// runSpam draws categorical labels from the loaded encoders so requests are
// accepted by the server's model.
func runSpam(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.New("spam")
	loaded, err := app.LoadArtifacts(ctx, cfg.Artifacts, log)
	if err != nil {
		return err
	}
	defer func() { _ = loaded.Close() }()

	gen := delivery.NewGenerator(uint64(time.Now().UnixNano()))
	next := func() model.PredictionRequest { return gen.Request(loaded.Artifacts.Encoders.Vocabulary) }
	rep, err := loadgen.Run(ctx, nil, spamCfg, next, log)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
