package main

import (
	"os"

	"github.com/spf13/cobra"

	"viper/internal/driver"
	"viper/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the language server over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		opts, err := loadOptions(cmd, driver.NewEnv())
		if err != nil {
			return err
		}
		// stdout is the protocol channel
		opts.Color = false
		server := lsp.NewServer(os.Stdin, os.Stdout, lsp.Options{Compile: opts, Log: os.Stderr})
		return server.Run(cmd.Context())
	},
}
