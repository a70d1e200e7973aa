package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the schema file",
	Long: `Validate the schema file: column types, primary keys, foreign keys and
the inheritance graph.`,
	Example: `  # Validate a specific schema file
  yanaq validate --schema schema.yaml

  # Validate using config file settings
  yanaq validate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema()
		if err != nil {
			return err
		}

		if !quiet {
			out := cmd.OutOrStdout()
			names := schema.TableNames()
			fmt.Fprintf(out, "Schema %s is valid. Found %d tables:\n", schema.Name(), len(names))
			for _, name := range names {
				t := schema.Table(name)
				fmt.Fprintf(out, "  - %s (%d columns)", name, len(t.ColumnNames()))
				if t.HasProfile() {
					fmt.Fprint(out, " [profile]")
				}
				fmt.Fprintln(out)
			}
		}
		return nil
	},
}
