package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keypilot/keypilot/tour"
)

func newTourCmd(getApp func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tour",
		Short: "Run or reset the guided walkthroughs",
	}

	cmd.AddCommand(
		newTourStartCmd(getApp),
		newTourStatusCmd(getApp),
		newTourResetCmd(getApp),
	)

	return cmd
}

func newTourStartCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:       "start <dashboard|add-key>",
		Short:     "Start a walkthrough from the beginning",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"dashboard", "add-key"},
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := engineByName(getApp(), args[0])
			if err != nil {
				return err
			}
			eng.Start()
			runTour(cmd, eng)
			return nil
		},
	}
}

func newTourStatusCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show walkthrough completion state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			for _, name := range []string{"dashboard", "add-key"} {
				eng, err := engineByName(a, name)
				if err != nil {
					return err
				}
				state := "not taken"
				if eng.Completed() {
					state = "completed"
				}
				fmt.Printf("%s\t%s (%d steps)\n", eng.Name(), state, eng.TotalSteps())
			}
			return nil
		},
	}
}

func newTourResetCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:       "reset <dashboard|add-key>",
		Short:     "Forget a walkthrough's progress so it offers itself again",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"dashboard", "add-key"},
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := engineByName(getApp(), args[0])
			if err != nil {
				return err
			}
			eng.Reset()
			fmt.Printf("Reset %s\n", eng.Name())
			return nil
		},
	}
}

func engineByName(a *app, name string) (*tour.Engine, error) {
	switch name {
	case "dashboard":
		return a.dashboardTour(), nil
	case "add-key":
		return a.addKeyTutorial(), nil
	default:
		return nil, fmt.Errorf("unknown tour %q", name)
	}
}

// runTour walks an active engine interactively until it finishes or
// the user skips out. Unknown input re-renders the current step.
func runTour(cmd *cobra.Command, eng *tour.Engine) {
	out := cmd.OutOrStdout()
	for eng.Active() {
		renderStep(out, eng)
		answer, err := promptLine(cmd, "[n]ext, [p]revious, [s]kip: ")
		if err != nil {
			eng.Skip()
			return
		}
		switch strings.ToLower(answer) {
		case "", "n", "next":
			eng.Next()
		case "p", "previous":
			eng.Previous()
		case "s", "skip", "q", "quit":
			eng.Skip()
		}
	}
	if eng.Completed() {
		fmt.Fprintln(out, "Walkthrough complete.")
	}
}
