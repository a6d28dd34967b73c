// Package main provides the keypilot binary entry point. Keypilot is
// the terminal client for the KeyPilot API-key management and
// semantic-routing backend: it manages the login session, gates the
// demo flow behind consent, walks first-time users through the
// dashboard and add-key tours, and exposes the playground analytics.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "keypilot"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		ephemeral  bool
	)

	var a *app
	getApp := func() *app { return a }

	cmd := &cobra.Command{
		Use:   "keypilot",
		Short: "KeyPilot terminal client",
		Long: `Keypilot is the terminal client for the KeyPilot backend.

It provides:
- Login session management with automatic restore
- Consent-gated demo access
- API key and template management
- Playground access to routing analytics

All data operations run against the remote backend; keypilot keeps
only session, consent, and tour state locally.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			var err error
			a, err = newApp(configPath, logLevel, ephemeral)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep session, consent, and tour state in memory only")

	cmd.AddCommand(
		newLoginCmd(getApp),
		newLogoutCmd(getApp),
		newWhoamiCmd(getApp),
		newDemoUsersCmd(getApp),
		newConsentCmd(getApp),
		newKeysCmd(getApp),
		newTemplatesCmd(getApp),
		newPlaygroundCmd(getApp),
		newTourCmd(getApp),
		newHealthCmd(getApp),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}
