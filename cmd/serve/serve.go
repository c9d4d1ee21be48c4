// Package serve starts the annotation synchronizer with its HTTP surface.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/geopin-go/internal/annotation"
	"github.com/tphakala/geopin-go/internal/api"
	"github.com/tphakala/geopin-go/internal/conf"
	"github.com/tphakala/geopin-go/internal/dataset"
	"github.com/tphakala/geopin-go/internal/logging"
	"github.com/tphakala/geopin-go/internal/observability"
	"github.com/tphakala/geopin-go/internal/overlay"
	"github.com/tphakala/geopin-go/internal/render"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the annotation server",
		Long:  "Start the HTTP API, load the configured dataset and keep annotations in sync across all registered render surfaces.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.API.Host, "host", viper.GetString("api.host"), "Listen address")
	cmd.Flags().StringVar(&settings.API.Port, "port", viper.GetString("api.port"), "Listen port")
	cmd.Flags().StringVar(&settings.Dataset.Source, "source", viper.GetString("dataset.source"), "Dataset source, a local file or HTTP URL")
	cmd.Flags().BoolVar(&settings.API.Metrics, "metrics", viper.GetBool("api.metrics"), "Expose Prometheus metrics on /metrics")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

// registerSurfaces wires the three display surfaces into the fan-out. The map
// renderer and list view targets start nil and attach once a frontend binds;
// the dispatcher skips surfaces without a target until then.
func registerSurfaces(dispatcher *render.Dispatcher, overlayMgr *overlay.Manager, settings *conf.Settings) {
	dispatcher.Register(render.NewMapAdapter(nil, settings))
	dispatcher.Register(render.NewListAdapter(nil, settings.Style.FlaggedColor))
	dispatcher.Register(render.NewOverlayAdapter(overlayMgr))
}

func runServer(settings *conf.Settings) error {
	logger := logging.ForService("serve")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	manager := dataset.NewManager(settings, metrics.Dataset)
	dispatcher := render.NewDispatcher(metrics.Render)
	svc := annotation.NewService(settings, manager, dispatcher, metrics.Annotation)
	defer svc.Shutdown()

	overlayMgr := overlay.NewManager(svc, nil, metrics.Overlay)
	registerSurfaces(dispatcher, overlayMgr, settings)
	logger.Info("render surfaces registered", "surfaces", dispatcher.SurfaceNames())

	loader := dataset.NewLoader(settings, metrics.Dataset)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if settings.Dataset.Source != "" {
		snapshot, err := loader.Load(ctx, settings.Dataset.Source)
		if err != nil {
			return fmt.Errorf("failed to load dataset from %s: %w", settings.Dataset.Source, err)
		}
		result := svc.ReplaceSnapshot(snapshot)
		logger.Info("dataset loaded",
			"source", settings.Dataset.Source,
			"records", result.Size)
	}

	controller := api.New(settings, svc, overlayMgr, loader, metrics)
	return controller.Start(ctx)
}
