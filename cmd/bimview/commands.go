package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newInfoCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show the record and statistics of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			rec, _ := s.manager.Model(s.id)
			if err := s.manager.FitViewpoint(s.id); err != nil {
				return err
			}
			visible, err := s.manager.VisibleElementCount(s.id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderRecord(out, rec, visible)
			if s.registry != nil {
				return renderMetrics(out, s.registry)
			}
			return nil
		},
	}
}

func newClassesCmd(st *cliState) *cobra.Command {
	var (
		showAll bool
		toggle  []string
	)
	cmd := &cobra.Command{
		Use:   "classes <file>",
		Short: "List the element classes of a model",
		Long: `List the element classes of a model with their counts, visibility and color.

Classes named by --hide (default: Space) start hidden. --toggle flips a class
after extraction and --show-all makes every class visible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			c := s.manager.Classifier()
			c.ExtractClasses(s.id)
			if showAll {
				c.ShowAllClasses()
			}
			for _, name := range toggle {
				c.ToggleClassVisibility(name)
			}

			out := cmd.OutOrStdout()
			renderClasses(out, c.Classes())
			renderFilterStats(out, c.FilterStats())
			return nil
		},
	}
	cmd.Flags().BoolVar(&showAll, "show-all", false, "Make every class visible")
	cmd.Flags().StringSliceVar(&toggle, "toggle", nil, "Flip the visibility of a class (repeatable)")
	return cmd
}

func newExportCmd(st *cliState) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Re-encode a model through the geometry engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			res := s.manager.ExportBinary(cmd.Context(), s.id)
			if !res.Success {
				return res.Err
			}

			path := output
			if path == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				path = filepath.Join(st.cfg.Export.OutputDir, base+".export.bimf")
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, res.Data, 0o644); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s in %s\n",
				humanize.Bytes(uint64(res.ByteLength)), path, res.Duration.Round(time.Microsecond))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output file (default: <output_dir>/<name>.export.bimf)")
	return cmd
}

func newPickCmd(st *cliState) *cobra.Command {
	var x, y, width, height float32
	cmd := &cobra.Command{
		Use:   "pick <file>",
		Short: "Report the element under a viewport pixel",
		Long: `Frame the model, cast a ray through a pixel of the viewport and report the
nearest visible element it hits. The pixel defaults to the viewport center.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 || height <= 0 {
				return fmt.Errorf("viewport must be positive, got %vx%v", width, height)
			}
			if !cmd.Flags().Changed("x") {
				x = width / 2
			}
			if !cmd.Flags().Changed("y") {
				y = height / 2
			}

			s, err := st.open(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			if err := s.manager.FitViewpoint(s.id); err != nil {
				return err
			}
			hit, ok, err := s.manager.PickElement(s.id, s.camera.ScreenRay(x, y, width, height))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !ok {
				_, _ = fmt.Fprintf(out, "No element at (%g, %g)\n", x, y)
				return nil
			}
			renderPick(out, hit)
			return nil
		},
	}
	cmd.Flags().Float32Var(&x, "x", 0, "Pixel column (default: viewport center)")
	cmd.Flags().Float32Var(&y, "y", 0, "Pixel row (default: viewport center)")
	cmd.Flags().Float32Var(&width, "width", 1280, "Viewport width in pixels")
	cmd.Flags().Float32Var(&height, "height", 720, "Viewport height in pixels")
	return cmd
}
