package cmd

import (
	"github.com/spf13/cobra"

	"github.com/emrgen/contentstore/internal/config"
	"github.com/emrgen/contentstore/internal/model"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
}

func Migrate() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load()
			if err != nil {
				panic(err)
			}

			db := config.GetDB(cfg)
			if err := model.Migrate(db); err != nil {
				panic(err)
			}
		},
	}

	return command
}
