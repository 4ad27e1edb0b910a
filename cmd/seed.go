package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/deliveryeta/core/delivery"
	infradelivery "github.com/kilianp07/deliveryeta/infra/delivery"
	"github.com/kilianp07/deliveryeta/infra/logger"
)

var (
	seedCount int
	seedRand  uint64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert synthetic reference data and deliveries",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().IntVarP(&seedCount, "count", "n", delivery.DefaultSeed.Deliveries, "deliveries to insert")
	seedCmd.Flags().Uint64Var(&seedRand, "seed", 0, "random seed, 0 for time based")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	repo, err := infradelivery.Open(cfg.Deliveries.Store)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()
	if cfg.Deliveries.Indexed {
		if err := repo.EnsureTrafficIndex(ctx); err != nil {
			return err
		}
	}

	if seedRand == 0 {
		seedRand = uint64(time.Now().UnixNano())
	}
	opts := delivery.DefaultSeed
	opts.Deliveries = seedCount
	res, err := delivery.Seed(ctx, repo, delivery.NewGenerator(seedRand), opts)
	if err != nil {
		return err
	}
	logger.New("seed").Infof("inserted %d deliveries (reference seeded: %t)", res.Deliveries, res.ReferenceSeeded)
	return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
}
