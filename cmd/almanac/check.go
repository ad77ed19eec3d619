package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report duplicate post slugs",
	Long:  `Loads every post, drafts included in dev mode, and reports slugs used more than once within a language. Exits non-zero when duplicates exist.`,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	app, log, err := openApp()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer app.Close()

	dupes, err := app.Library().DuplicateSlugs(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(dupes) == 0 {
		fmt.Fprintln(out, color.GreenString("✓ no duplicate slugs"))
		return nil
	}
	for _, msg := range dupes {
		fmt.Fprintln(out, color.RedString("✗ %s", msg))
	}
	return fmt.Errorf("%d duplicate slug(s) found", len(dupes))
}
