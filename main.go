package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"twoblog/auth"
	"twoblog/config"
	"twoblog/constants"
	"twoblog/database"
	"twoblog/importer"
	"twoblog/logging"
	"twoblog/site"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:          constants.APP_NAME,
		Short:        "A small personal blog",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./twoblog.yaml)")

	root.AddCommand(newServeCmd(&configFile), newImportCmd(&configFile))
	return root
}

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *configFile)
		},
	}
}

func serve(ctx context.Context, configFile string) error {
	loader := config.NewLoader(configFile)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logger := logging.Must(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DatabasePath, cfg.Debug)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error("close database", zap.Error(err))
		}
	}()
	store := database.NewStore(db)

	roles := auth.NewRoles(cfg.Admins)
	loader.OnAdminsChange(func(uids []string) {
		roles.Replace(uids)
		logger.Info("admin list reloaded", zap.Int("admins", roles.Count()))
	})

	hub := auth.NewHub()
	defer hub.Close()
	unsubscribe := hub.OnAuthChange(func(event auth.Event) {
		logger.Info("auth change", zap.String("kind", string(event.Kind)), zap.String("uid", event.UID))
	})
	defer unsubscribe()

	identity := auth.NewIdentity(store, roles, hub)
	s, err := site.New(cfg, store, identity, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("listening", zap.String("addr", server.Addr), zap.String("public_url", cfg.PublicURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func newImportCmd(configFile *string) *cobra.Command {
	var (
		author    string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "import <bearblog-export.csv>",
		Short: "Import posts from a BearBlog CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader(*configFile).Load()
			if err != nil {
				return err
			}

			logger := logging.Must(cfg.Debug)
			defer func() { _ = logger.Sync() }()

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			db, err := database.Open(cfg.DatabasePath, cfg.Debug)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			result, err := importer.Import(cmd.Context(), database.NewStore(db), file, importer.Options{
				Author:    author,
				Overwrite: overwrite,
			})
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			logger.Info("posts imported",
				zap.String("file", args[0]),
				zap.Int("imported", result.Imported),
				zap.Int("replaced", result.Replaced),
				zap.Int("skipped", result.Skipped))
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", constants.APP_NAME, "author name given to imported posts")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing posts with the same title")
	return cmd
}
