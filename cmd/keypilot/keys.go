package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newKeysCmd(getApp func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage your API keys",
	}

	cmd.AddCommand(
		newKeysListCmd(getApp),
		newKeysAddCmd(getApp),
		newKeysUpdateCmd(getApp),
		newKeysDeleteCmd(getApp),
	)

	return cmd
}

func newKeysListCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the keys owned by the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.requireAuth(); err != nil {
				return err
			}

			ctx, cancel := a.ctx()
			defer cancel()

			raw, err := a.client.MyKeys(ctx)
			if err != nil {
				return err
			}
			printJSON(raw)
			return nil
		},
	}
}

func newKeysAddCmd(getApp func() *app) *cobra.Command {
	var (
		name      string
		template  string
		rateLimit int
		data      string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new API key",
		Long: `Create a new API key.

Set the common fields with flags, or pass arbitrary backend fields as
a JSON object via --data. Flag values override --data fields.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.requireAuth(); err != nil {
				return err
			}

			// The add-key form is where the tutorial lives; it offers
			// itself on the first visit only.
			eng := a.addKeyTutorial()
			if eng.MaybeAutoStart() {
				runTour(cmd, eng)
			}

			record, err := buildRecord(data, name, template, rateLimit)
			if err != nil {
				return err
			}

			ctx, cancel := a.ctx()
			defer cancel()

			raw, err := a.client.AddKey(ctx, record)
			if err != nil {
				return err
			}
			printJSON(raw)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Key name")
	cmd.Flags().StringVar(&template, "template", "", "Routing template id")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "Requests per minute (0 = backend default)")
	cmd.Flags().StringVar(&data, "data", "", "Additional fields as a JSON object")

	return cmd
}

func newKeysUpdateCmd(getApp func() *app) *cobra.Command {
	var (
		name      string
		template  string
		rateLimit int
		data      string
	)

	cmd := &cobra.Command{
		Use:   "update <key-id>",
		Short: "Update an existing API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.requireAuth(); err != nil {
				return err
			}

			record, err := buildRecord(data, name, template, rateLimit)
			if err != nil {
				return err
			}
			record["keyId"] = args[0]

			ctx, cancel := a.ctx()
			defer cancel()

			raw, err := a.client.UpdateKey(ctx, record)
			if err != nil {
				return err
			}
			printJSON(raw)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Key name")
	cmd.Flags().StringVar(&template, "template", "", "Routing template id")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "Requests per minute (0 = leave unchanged)")
	cmd.Flags().StringVar(&data, "data", "", "Additional fields as a JSON object")

	return cmd
}

func newKeysDeleteCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key-id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.requireAuth(); err != nil {
				return err
			}

			ctx, cancel := a.ctx()
			defer cancel()

			if err := a.client.DeleteKey(ctx, map[string]any{"keyId": args[0]}); err != nil {
				return err
			}
			fmt.Println("Deleted", args[0])
			return nil
		},
	}
}

// buildRecord merges the --data JSON object with the flag values,
// flags winning.
func buildRecord(data, name, template string, rateLimit int) (map[string]any, error) {
	record := map[string]any{}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("parse --data: %w", err)
		}
	}
	if name != "" {
		record["name"] = name
	}
	if template != "" {
		record["template"] = template
	}
	if rateLimit > 0 {
		record["rateLimit"] = rateLimit
	}
	return record, nil
}
