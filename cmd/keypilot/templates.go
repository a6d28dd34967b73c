package main

import (
	"github.com/spf13/cobra"
)

func newTemplatesCmd(getApp func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Browse routing templates",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List available templates",
			RunE: func(cmd *cobra.Command, args []string) error {
				a := getApp()
				if err := a.requireAuth(); err != nil {
					return err
				}

				ctx, cancel := a.ctx()
				defer cancel()

				raw, err := a.client.Templates(ctx)
				if err != nil {
					return err
				}
				printJSON(raw)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <template-id>",
			Short: "Show one template",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := getApp()
				if err := a.requireAuth(); err != nil {
					return err
				}

				ctx, cancel := a.ctx()
				defer cancel()

				raw, err := a.client.Template(ctx, args[0])
				if err != nil {
					return err
				}
				printJSON(raw)
				return nil
			},
		},
	)

	return cmd
}
