package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"quizops-service/internal/config"
	"quizops-service/internal/seed"
)

// NewSeedCmd loads a quiz JSON file into the catalog.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a quiz and its questions from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			f, err := seed.Load(file)
			if err != nil {
				return err
			}

			db := openBunDB(cfg.Postgres.URL)
			defer db.Close()

			quizID, err := seed.Apply(cmd.Context(), db, f)
			if err != nil {
				return err
			}
			log.Printf("seed ok, quiz_id=%s", quizID)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "data/questions/sql_python_de.json", "path to quiz JSON file")
	return cmd
}
