package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConsentCmd(getApp func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consent",
		Short: "Manage data-use consent for the demo environment",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show whether consent is currently held",
			RunE: func(cmd *cobra.Command, args []string) error {
				if getApp().gate.HasValidConsent() {
					fmt.Println("Consent granted (valid for up to 24 hours)")
				} else {
					fmt.Println("No valid consent on record")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "grant",
			Short: "Grant consent for 24 hours",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := getApp().gate.Grant(); err != nil {
					return fmt.Errorf("record consent: %w", err)
				}
				fmt.Println("Consent granted; expires in 24 hours")
				return nil
			},
		},
		&cobra.Command{
			Use:   "revoke",
			Short: "Withdraw consent immediately",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := getApp().gate.Revoke(); err != nil {
					return fmt.Errorf("clear consent: %w", err)
				}
				fmt.Println("Consent revoked")
				return nil
			},
		},
	)

	return cmd
}
