package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanadb/yanaq/internal/cli"
	"github.com/yanadb/yanaq/internal/doctor"
	"github.com/yanadb/yanaq/pkg/blob"
	"github.com/yanadb/yanaq/pkg/query"
)

var doctorVerbose bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long: `Check that the schema file is valid and that every table and column it
declares exists in the database.`,
	Example: `  # Run health checks
  yanaq doctor

  # Run with detailed output
  yanaq doctor --details`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !quiet {
			fmt.Fprintln(out, "yanaq doctor - Health Check")
		}

		d := doctor.New(schemaPath(), connect, query.WithTablePrefix(cfg.Query.TablePrefix), query.WithLogger(logger))
		if cfg.Files.Dir != "" {
			d.SetFiles(blob.New(cfg.Files.Dir, blob.WithLogger(logger)))
		}
		report, err := d.Run(cmd.Context())
		if err != nil {
			return cli.GeneralError("running doctor", err)
		}

		report.Print(out, doctorVerbose || verbose > 0)

		if report.HasErrors() {
			return cli.GeneralError("health checks failed", nil)
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorVerbose, "details", false, "show detailed output")
}
