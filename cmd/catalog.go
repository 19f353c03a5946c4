package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/engineermaster/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate and load skill tree catalogs",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a catalog file without touching the database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		c, err := loadCatalog(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "catalog %s is valid: %d trees, %d nodes, %d achievements\n",
			c.Version, len(c.Trees), c.NodeCount(), len(c.Achievements))
		return nil
	},
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load a catalog into the database",
	Long:  "Upserts trees, nodes and achievements by ID. Learner progress is kept.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		path := e.cfg.Catalog
		if len(args) == 1 {
			path = args[0]
		}
		c, err := loadCatalog(path)
		if err != nil {
			return err
		}
		sum, err := catalog.Seed(cmd.Context(), e.store, c)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %d trees, %d nodes, %d achievements\n",
			sum.Trees, sum.Nodes, sum.Achievements)
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogLoadCmd)
}
