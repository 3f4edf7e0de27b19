package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/bimview/internal/config"
	"github.com/Faultbox/bimview/internal/engine/camera"
	"github.com/Faultbox/bimview/internal/engine/native"
	"github.com/Faultbox/bimview/internal/logger"
	"github.com/Faultbox/bimview/internal/metrics"
	"github.com/Faultbox/bimview/internal/scene"
	"github.com/Faultbox/bimview/internal/viewer"
)

// Version is set at build time.
var Version = "0.1.0"

// cliState is shared by the subcommands of one invocation.
type cliState struct {
	overrides *config.Overrides
	cfg       *config.Config
	log       *zap.Logger
	progress  bool
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	root := &cobra.Command{
		Use:     "bimview",
		Short:   "Inspect, classify and export building models",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			cfg, err := config.Load(st.overrides)
			if err != nil {
				return err
			}
			st.cfg = cfg

			fileCfg := logger.FileConfig{}
			if cfg.Logging.LogFile != "" {
				fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
			}
			if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
				return err
			}
			st.log = logger.Named("bimview")
			st.log.Debug("Config loaded", zap.Any("config", cfg))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	st.overrides = config.BindFlags(root.PersistentFlags())
	root.PersistentFlags().BoolVar(&st.progress, "progress", false, "Print load progress to stderr")

	root.AddCommand(newInfoCmd(st))
	root.AddCommand(newClassesCmd(st))
	root.AddCommand(newExportCmd(st))
	root.AddCommand(newPickCmd(st))
	return root
}

// session is one model loaded into a fresh viewer.
type session struct {
	manager  *viewer.Manager
	graph    *scene.Graph
	camera   *camera.OrbitCamera
	registry *prometheus.Registry
	id       string
	path     string
}

// open loads path into a new viewer.
func (st *cliState) open(cmd *cobra.Command, path string) (*session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}

	var (
		col *metrics.Collector
		reg *prometheus.Registry
	)
	if st.cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		if col, err = metrics.New(st.cfg.Metrics.Namespace, reg); err != nil {
			return nil, err
		}
	}

	m, err := viewer.NewManager(viewer.Options{
		Engine:  native.New(native.WithLogger(st.log.Named("engine"))),
		Logger:  st.log.Named("viewer"),
		Metrics: col,
		Config:  st.cfg,
	})
	if err != nil {
		return nil, err
	}

	s := &session{
		manager:  m,
		graph:    scene.NewGraph(),
		camera:   camera.NewOrbitCamera(),
		registry: reg,
		path:     path,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := m.Initialize(ctx, s.graph, s.camera); err != nil {
		m.Dispose(ctx)
		return nil, err
	}

	var onProgress func(int)
	if st.progress {
		onProgress = func(p int) { fmt.Fprintf(cmd.ErrOrStderr(), "\rloading %s %3d%%", filepath.Base(path), p) }
	}
	s.id, err = m.LoadModel(ctx, data, filepath.Base(path), onProgress)
	if st.progress {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		m.Dispose(ctx)
		return nil, err
	}
	return s, nil
}

func (s *session) close(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.manager.Dispose(ctx)
}
