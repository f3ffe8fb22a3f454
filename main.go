package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// App holds everything one process shares: one client, one queue, one cache.
type App struct {
	cfg    *Config
	client *ImageClient
	search *Orchestrator
	store  *Store
	redis  *redis.Client
}

func newApp(cfg *Config) (*App, error) {
	setupLogging(cfg)

	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}

	var stats StatsRecorder
	var rdb *redis.Client
	if cfg.Stats.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Stats.RedisAddr,
			Password: cfg.Stats.Password,
			DB:       cfg.Stats.DB,
		})
		stats = NewRedisStats(rdb, cfg.Stats.Prefix, time.Duration(cfg.Stats.TTLHours)*time.Hour)
	}

	limits := NewRateLimitInfo(cfg.Queue.MaxPerHour, newLogger(cfg.Provider.Use))
	provider, err := newProvider(cfg, limits)
	if err != nil {
		store.Close()
		return nil, err
	}
	client := NewImageClient(provider, limits, ClientOptions{
		APIKey:       cfg.apiKey(),
		Queue:        cfg.queueOptions(),
		Cache:        cfg.cacheOptions(),
		RetryBackoff: time.Duration(cfg.Queue.RetryBackoffSec) * time.Second,
		Stats:        stats,
	})
	return &App{
		cfg:    cfg,
		client: client,
		search: NewOrchestrator(client, store),
		store:  store,
		redis:  rdb,
	}, nil
}

func (a *App) Close() {
	a.client.Close()
	a.store.Close()
	if a.redis != nil {
		a.redis.Close()
	}
	closeLogging()
}

func processError(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(2)
}

func newRootCmd() *cobra.Command {
	var configFile string

	withApp := func(run func(app *App, args []string) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return run(app, args)
		}
	}

	root := &cobra.Command{
		Use:           "slideimgproxy",
		Short:         "Pick stock photos for presentation slides",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (.json or .toml, default "+defaultConfigFile+")")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: withApp(func(app *App, _ []string) error {
			return serve(app)
		}),
	})

	var layout, primary, secondary string
	imageCmd := &cobra.Command{
		Use:   "image <description>",
		Short: "Find the best photo for a slide description",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(app *App, args []string) error {
			var theme *ThemeColors
			if primary != "" || secondary != "" {
				theme = &ThemeColors{Primary: primary, Secondary: secondary}
			}
			photo := app.search.GetImageForSlide(strings.Join(args, " "), layout, theme)
			if photo == nil {
				return fmt.Errorf("no suitable image found")
			}
			return printJSON(app.cfg, photo)
		}),
	}
	imageCmd.Flags().StringVar(&layout, "layout", "full-width", "slide image layout")
	imageCmd.Flags().StringVar(&primary, "primary", "", "theme primary colour (#rrggbb)")
	imageCmd.Flags().StringVar(&secondary, "secondary", "", "theme secondary colour (#rrggbb)")
	root.AddCommand(imageCmd)

	root.AddCommand(&cobra.Command{
		Use:   "explain <description>",
		Short: "Show how a description is turned into search queries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt := NewQueryOptimizer()
			description := strings.Join(args, " ")
			keywords := opt.ExtractVisualKeywords(opt.CleanQuery(description))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "optimized:  %s\n", opt.Optimize(description))
			fmt.Fprintf(out, "keywords:   %s\n", strings.Join(keywords, ", "))
			fmt.Fprintf(out, "variations: %s\n", strings.Join(opt.GenerateVariations(keywords), ", "))
			fmt.Fprintf(out, "concepts:   %s\n", strings.Join(opt.ExtractConcepts(description), ", "))
			fmt.Fprintf(out, "fallbacks:  %s\n", strings.Join(opt.FallbackQueries(description), ", "))
			return nil
		},
	})

	var level int
	useraddCmd := &cobra.Command{
		Use:   "useradd <name> <password>",
		Short: "Add or replace an HTTP API user",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(app *App, args []string) error {
			return app.store.AddUser(args[0], args[1], level)
		}),
	}
	useraddCmd.Flags().IntVar(&level, "level", 1, "user level")
	root.AddCommand(useraddCmd)

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent image selections",
		Args:  cobra.NoArgs,
		RunE: withApp(func(app *App, _ []string) error {
			rows, err := app.store.RecentSelections(limit)
			if err != nil {
				return err
			}
			for _, sel := range rows {
				photo := sel.PhotoID
				if photo == "" {
					photo = "-"
				}
				fmt.Printf("%s  %-8s %-8s %-10s %s  %q\n", sel.CreatedAt.Format(time.DateTime), sel.Provider, sel.Strategy, sel.Layout, photo, sel.Description)
			}
			return nil
		}),
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of rows")
	root.AddCommand(historyCmd)

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print client status",
		Args:  cobra.NoArgs,
		RunE: withApp(func(app *App, _ []string) error {
			return printJSON(app.cfg, app.client.DebugInfo(context.Background()))
		}),
	})

	return root
}

func printJSON(cfg *Config, v any) error {
	enc := json.NewEncoder(os.Stdout)
	if cfg.Debug.PrettyJson {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		processError(err)
	}
}
