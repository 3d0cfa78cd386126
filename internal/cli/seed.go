package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"scriptura/internal/seed"
)

func init() {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Materialize the seed dataset into the local database path",
		Run:   runSeed,
	}
	RootCmd.AddCommand(cmd)
}

func runSeed(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()
	if err := seed.EnsureDatabase(cmd.Context(), cfg.LocalDBPath, seedResolver(cfg)); err != nil {
		exitErr("seed local database", err)
	}
	fmt.Printf("local database ready at %s\n", cfg.LocalDBPath)
}
