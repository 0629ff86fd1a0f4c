// Command prp builds PRP reports from prior-year PSP files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "prp",
		Short: "Build PRP student-support reports",
		Long: `prp reads prior-year PSP files (xlsx, xls or txt), extracts the sections
for one subject with an LLM, fills in the shared fields and writes one
PRP_<student>.xlsx workbook per student.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format (text, json)")

	cmd.AddCommand(buildCmd(g), watchCmd(g))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "prp version %s (build: %s)\n", Version, BuildTime)
		},
	})
	return cmd
}
