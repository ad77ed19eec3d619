package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/almanac"
)

var (
	langFlag       string
	collectionFlag string
	seasonsFlag    bool
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Copy a content directory into the SQLite store",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags by post count",
	RunE:  runTags,
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Print entries grouped by year",
	RunE:  runArchive,
}

func init() {
	for _, cmd := range []*cobra.Command{tagsCmd, archiveCmd} {
		cmd.Flags().StringVarP(&langFlag, "lang", "l", "", "locale to list (defaults to the configured default)")
	}
	archiveCmd.Flags().StringVar(&collectionFlag, "collection", string(almanac.Posts), "collection to list: posts or weeks")
	archiveCmd.Flags().BoolVar(&seasonsFlag, "seasons", false, "group weeks by season within each year")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabasePath == "" {
		return fmt.Errorf("database_path is required for import")
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := almanac.NewStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := almanac.Import(cmd.Context(), args[0], cfg.Location(), store)
	if err != nil {
		return err
	}
	log.Info("imported entries", zap.Int("count", n), zap.String("dir", args[0]), zap.String("db", cfg.DatabasePath))
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries\n", n)
	return nil
}

func runTags(cmd *cobra.Command, args []string) error {
	app, log, err := openApp()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer app.Close()

	lib := app.Library()
	tags, err := lib.AllTags(cmd.Context(), langFlag)
	if err != nil {
		return err
	}
	idx, err := lib.PostsGroupByTags(cmd.Context(), langFlag)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, t := range tags {
		fmt.Fprintf(w, "%s\t%d\n", t, idx.Count(t))
	}
	return w.Flush()
}

func runArchive(cmd *cobra.Command, args []string) error {
	app, log, err := openApp()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer app.Close()

	lib := app.Library()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)

	if seasonsFlag {
		archive, err := lib.WeeksByYearAndSeason(ctx, langFlag)
		if err != nil {
			return err
		}
		for _, y := range archive {
			bold.Fprintf(out, "%d\n", y.Year)
			for _, s := range y.Seasons {
				fmt.Fprintf(out, "  %s\n", s.Name)
				for _, it := range s.Items {
					fmt.Fprintf(out, "    %s  %s\n", it.PubDate.Format("01-02"), it.Title)
				}
			}
		}
		return nil
	}

	var archive almanac.Archive
	switch almanac.Collection(collectionFlag) {
	case almanac.Posts:
		archive, err = lib.PostsByYear(ctx, langFlag)
	case almanac.Weeks:
		archive, err = lib.WeeksByYear(ctx, langFlag)
	default:
		return fmt.Errorf("unknown collection %q", collectionFlag)
	}
	if err != nil {
		return err
	}
	for _, g := range archive {
		bold.Fprintf(out, "%d\n", g.Year)
		for _, it := range g.Items {
			fmt.Fprintf(out, "  %s  %s  (%d min)\n", it.PubDate.Format("01-02"), it.Title, it.Meta.Minutes)
		}
	}
	return nil
}
