package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesikahq/patient-dashboard/internal/audit"
	"github.com/mesikahq/patient-dashboard/internal/dashboard"
	"github.com/mesikahq/patient-dashboard/internal/term"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List patients fetched from the upstream API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.fetch(cmd.Context())
			if err != nil {
				return err
			}
			return term.PrintRoster(cmd.OutOrStdout(), dashboard.BuildRoster(records, a.cfg.Assets.DefaultImage))
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [index]",
		Short: "Show one patient's profile",
		Long: `Show the profile, vitals, blood pressure trend and diagnostics of one patient.

The index is the patient's position in the upstream list and defaults to 0.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := 0
			if len(args) == 1 {
				i, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid index %q: %w", args[0], err)
				}
				index = i
			}

			records, err := a.fetch(cmd.Context())
			if err != nil {
				return err
			}

			screen := term.NewScreen(cmd.OutOrStdout())
			renderer := dashboard.NewRenderer(screen, screen, dashboard.WithDefaultImage(a.cfg.Assets.DefaultImage))
			defer renderer.Close()

			view, err := renderer.Render(records, index)
			if err != nil {
				return err
			}
			a.recordView(cmd.Context(), view)
			return screen.Flush()
		},
	}
}

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Fetch once and switch between patients interactively",
		Long: `Fetch the patient list once, show the first patient, then read an index per
line from standard input and show that patient. Enter q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.fetch(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No patients.")
				return nil
			}

			screen := term.NewScreen(out)
			renderer := dashboard.NewRenderer(screen, screen, dashboard.WithDefaultImage(a.cfg.Assets.DefaultImage))
			defer renderer.Close()

			show := func(index int) error {
				view, err := renderer.Render(records, index)
				if err != nil {
					return err
				}
				a.recordView(cmd.Context(), view)
				return screen.Flush()
			}

			if err := show(0); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
			return browse(cmd.InOrStdin(), out, cmd.ErrOrStderr(), len(records), show)
		},
	}
}

// browse reads one index per line and calls show for each. Bad input is
// reported and skipped.
func browse(in io.Reader, out, errOut io.Writer, count int, show func(int) error) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "\npatient [0-%d, q to quit]> ", count-1)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "q", "quit", "exit":
			return nil
		}

		index, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintf(errOut, "invalid index %q\n", line)
			continue
		}
		if err := show(index); err != nil {
			fmt.Fprintln(errOut, err)
		}
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cfg.Write(cmd.OutOrStdout())
		},
	}
}

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Manage the audit trail storage",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the postgres audit table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sink, err := audit.OpenPostgresSink(cmd.Context(), a.cfg.Audit.Postgres)
			if err != nil {
				return err
			}
			defer sink.Close(cmd.Context())

			if err := sink.EnsureTable(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "audit table %s ready\n", a.cfg.Audit.Postgres.Table)
			return nil
		},
	})
	return cmd
}
