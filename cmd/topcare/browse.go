package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/feed"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/feedback"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/recall"
)

var browseFlags struct {
	mode     string
	pages    int
	user     string
	category string
	query    string
	endpoint string
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Page through the ranking endpoint with a seeded feed session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mode, err := core.ParseRankMode(browseFlags.mode)
		if err != nil {
			return err
		}
		endpoint := browseFlags.endpoint
		if endpoint == "" {
			endpoint = cfg.Feed.Endpoint
		}

		s := feed.New(recall.NewRPCPageSource(endpoint, cfg.Feed.Timeout), feed.Options{
			PageSize: cfg.Feed.PageSize,
			UserID:   browseFlags.user,
			Sink:     feedback.LogSink{Logger: logging.Component("telemetry")},
			Timeout:  cfg.Feed.Timeout,
		})
		defer s.Close()

		filters := core.Filters{Category: browseFlags.category, Query: browseFlags.query}
		if err := s.FreshLoad(cmd.Context(), mode, filters); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printed := printNew(cmd.Context(), out, s, 0)
		for page := 1; page < browseFlags.pages && s.HasMore(); page++ {
			if _, err := s.LoadMore(cmd.Context()); err != nil {
				return err
			}
			printed = printNew(cmd.Context(), out, s, printed)
		}
		s.WaitTelemetry()

		total, ok := s.Total()
		totalStr := "unknown"
		if ok {
			totalStr = fmt.Sprint(total)
		}
		fmt.Fprintf(out, "\nseed=%d mode=%s degraded=%v loaded=%d total=%s hasMore=%v\n",
			s.Seed(), s.Mode(), s.Degraded(), printed, totalStr, s.HasMore())
		return nil
	},
}

func init() {
	f := browseCmd.Flags()
	f.StringVar(&browseFlags.mode, "mode", string(core.ModePersonalized), "ranking mode: personalized|trending|search|latest")
	f.IntVar(&browseFlags.pages, "pages", 1, "number of pages to load")
	f.StringVar(&browseFlags.user, "user", "", "user id")
	f.StringVar(&browseFlags.category, "category", "", "category filter")
	f.StringVarP(&browseFlags.query, "query", "q", "", "search query")
	f.StringVar(&browseFlags.endpoint, "endpoint", "", "ranking endpoint (default from config)")
}

// printNew 打印 from 之后新加载的商品并逐条上报曝光，返回已打印条数。
func printNew(ctx context.Context, w io.Writer, s *feed.Session, from int) int {
	items := s.Items()
	for i := from; i < len(items); i++ {
		it := items[i]
		boosted := ""
		if it.IsBoosted {
			boosted = " [boosted]"
		}
		fmt.Fprintf(w, "%3d  %-12s %-10s %8.2f  %s%s\n", i+1, it.ID, it.Category, it.Price, it.Title, boosted)
		s.ReportView(ctx, it.ID)
	}
	return len(items)
}
