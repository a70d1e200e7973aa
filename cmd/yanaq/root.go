package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanadb/yanaq/internal/cli"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     = zap.NewNop()

	// Persistent flags
	cfgFile    string
	schemaFlag string
	verbose    int
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "yanaq",
	Short: "Schema-checked SQL statements from keys",
	Long: `yanaq - schema-checked SQL statements from keys

yanaq validates statements against a YAML schema before they reach the
database. Tables may inherit from a parent table, rows may belong to a
profile, and columns are addressed with dotted keys.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}

		logCfg := cfg.Log
		switch {
		case quiet:
			logCfg = cli.Quiet(logCfg)
		case verbose > 0:
			logCfg = cli.Verbose(logCfg)
		}
		logger, err = cli.NewLogger(logCfg)
		if err != nil {
			return cli.ConfigError("building logger", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupQuery   = "query"
	groupSchema  = "schema"
	groupUtility = "utility"
)

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover yanaq.yaml)")
	rootCmd.PersistentFlags().StringVar(&schemaFlag, "schema", "", "path to the schema file (default: from config)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	// Define command groups
	rootCmd.AddGroup(
		&cobra.Group{ID: groupQuery, Title: "Query:"},
		&cobra.Group{ID: groupSchema, Title: "Schema:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	// Query commands
	for _, c := range []*cobra.Command{renderCmd, getCmd, countCmd, existsCmd, deleteCmd} {
		c.GroupID = groupQuery
		rootCmd.AddCommand(c)
	}

	// Schema commands
	validateCmd.GroupID = groupSchema
	doctorCmd.GroupID = groupSchema
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(doctorCmd)

	// Utility commands
	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
