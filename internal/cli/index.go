package cli

import (
	"fmt"
	"os"
	"strconv"

	"daily-problem-service/internal/config"
	"github.com/spf13/cobra"
)

// NewIndexCmd inspects and repairs the persisted active index offline.
// A running server only reads the ledger at startup.
func NewIndexCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Inspect or set the persisted problem index",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the persisted index and whether its bundle is complete",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadValidConfig(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackends(cmd.Context(), cfg, newLogger(cfg, os.Stderr))
			if err != nil {
				return err
			}
			defer b.Close()

			index, err := b.ledger.Load(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "ledger unusable: %v (server will reset to 1)\n", err)
				return nil
			}
			status := "ok"
			if _, err := b.store.LoadProblem(cmd.Context(), index); err != nil {
				status = err.Error()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "index %d: %s\n", index, status)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set N",
		Short: "Persist N as the active index and clear attempts; takes effect on the next server start",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index must be an integer: %w", err)
			}
			cfg, err := loadValidConfig(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackends(cmd.Context(), cfg, newLogger(cfg, os.Stderr))
			if err != nil {
				return err
			}
			defer b.Close()

			if _, err := b.store.LoadProblem(cmd.Context(), index); err != nil {
				return fmt.Errorf("refusing to persist index %d: %w", index, err)
			}
			// Attempts recorded against another index must not carry over.
			if current, err := b.ledger.Load(cmd.Context()); err != nil || current != index {
				if err := b.attempts.ClearAll(cmd.Context()); err != nil {
					return fmt.Errorf("clear attempts: %w", err)
				}
			}
			if err := b.ledger.Save(cmd.Context(), index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "index set to %d\n", index)
			return nil
		},
	})
	return cmd
}

func loadValidConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
