package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(getApp func() *app) *cobra.Command {
	var (
		demo     bool
		password string
	)

	cmd := &cobra.Command{
		Use:   "login [user-id]",
		Short: "Sign in to the KeyPilot backend",
		Long: `Sign in to the KeyPilot backend and persist the session.

With --demo the client signs in with a discoverable demo account.
Demo access requires data-use consent, which is requested
interactively when missing (see "keypilot consent").`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()

			if !a.gate.CanEnterLogin(demo) {
				granted, err := promptConsent(cmd)
				if err != nil {
					return err
				}
				if !granted {
					return fmt.Errorf("demo access requires consent; run `keypilot consent grant`")
				}
				if err := a.gate.Grant(); err != nil {
					return fmt.Errorf("record consent: %w", err)
				}
			}

			ctx, cancel := a.ctx()
			defer cancel()

			var userID string
			if len(args) > 0 {
				userID = args[0]
			}

			if demo {
				users := a.client.DemoUsers(ctx)
				if userID == "" {
					userID = users[0].UserID
				}
				if password == "" {
					for _, u := range users {
						if u.UserID == userID {
							password = u.PasswordHint
						}
					}
				}
			}

			if userID == "" {
				return fmt.Errorf("user id required (or use --demo)")
			}
			if password == "" {
				var err error
				password, err = promptLine(cmd, fmt.Sprintf("Password for %s: ", userID))
				if err != nil {
					return err
				}
			}

			if err := a.sessions.Login(ctx, userID, password); err != nil {
				return fmt.Errorf("%s", a.sessions.Current().LastError)
			}

			fmt.Printf("Signed in as %s\n", userID)

			// First sign-in lands on the dashboard, so this is where
			// the walkthrough offers itself.
			eng := a.dashboardTour()
			if eng.MaybeAutoStart() {
				runTour(cmd, eng)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "Sign in with a demo account")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")

	return cmd
}

func newLogoutCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if !a.sessions.Current().Authenticated() {
				fmt.Println("Not signed in")
				return nil
			}

			ctx, cancel := a.ctx()
			defer cancel()

			a.sessions.Logout(ctx)
			fmt.Println("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(getApp func() *app) *cobra.Command {
	var profile bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.requireAuth(); err != nil {
				return err
			}

			cur := a.sessions.Current()
			fmt.Println(cur.UserID)

			if profile {
				ctx, cancel := a.ctx()
				defer cancel()

				raw, err := a.client.UserProfile(ctx, cur.UserID)
				if err != nil {
					return err
				}
				printJSON(raw)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&profile, "profile", false, "Also fetch the extended profile")

	return cmd
}

func newDemoUsersCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo-users",
		Short: "List discoverable demo accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()

			ctx, cancel := a.ctx()
			defer cancel()

			for _, u := range a.client.DemoUsers(ctx) {
				fmt.Printf("%s\t(password: %s)\n", u.UserID, u.PasswordHint)
			}
			return nil
		},
	}
}

// promptConsent asks for data-use consent on the command's input
// stream. EOF counts as a refusal.
func promptConsent(cmd *cobra.Command) (bool, error) {
	fmt.Println("The demo environment records the prompts and key operations you")
	fmt.Println("submit, for product improvement. Consent expires after 24 hours.")
	answer, err := promptLine(cmd, "Allow this? [y/N]: ")
	if err != nil {
		return false, nil
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Print(prompt)
	in := cmd.InOrStdin()
	if in == nil {
		in = os.Stdin
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
