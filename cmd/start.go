package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hardware-manager/core/loader"
	"hardware-manager/core/logger"
	"hardware-manager/core/middleware/auth"
	"hardware-manager/core/middleware/rayid"
	"hardware-manager/feature/account"
	"hardware-manager/feature/integrity"
	"hardware-manager/feature/inventory"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the inventory console server",
	Long: `Starts the local HTTP console and initializes all enabled features.
The console keeps one reconciled view of the inventory for the logged-in operator.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()
		logg := rt.logger

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ReadTimeout:           rt.cfg.Server.RequestTimeout(),
			WriteTimeout:          rt.cfg.Server.RequestTimeout(),
		})

		inv := inventory.NewFeature(rt.remote, rt.session, rt.storage, rt.cfg.Storage, logg)

		mgr := loader.NewManager()
		mgr.Register(account.NewFeature(rt.remote, rt.session, logg))
		mgr.Register(inv)
		mgr.Register(integrity.NewFeature(rt.remote, rt.storage, rt.cfg.Storage, rt.db, logg))

		// RayID first so every later log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		// A restored session gets its view up front.
		if rt.session.Authenticated() {
			if err := inv.Service().Load(cmd.Context()); err != nil {
				logg.Warn("Initial inventory load failed", zap.Error(err))
			}
		}

		if spec := rt.cfg.Server.RefreshSchedule; spec != "" {
			scheduler := cron.New()
			_, err := scheduler.AddFunc(spec, func() {
				if !rt.session.Authenticated() {
					return
				}
				if err := inv.Service().Load(context.Background()); err != nil {
					logg.Warn("Scheduled inventory refresh failed", zap.Error(err))
				}
			})
			if err != nil {
				return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
			}
			scheduler.Start()
			defer scheduler.Stop()
			logg.Info("Background refresh scheduled", zap.String("schedule", spec))
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server",
				zap.String("address", rt.cfg.Server.Address()),
				zap.String("remote", rt.remote.BaseURL()),
			)
			errCh <- app.Listen(rt.cfg.Server.Address())
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-quit:
		}

		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
