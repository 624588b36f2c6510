package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"detectstudio/internal/imageio"
	"detectstudio/internal/render"
	processing "detectstudio/processing/detector"

	"github.com/spf13/cobra"
)

const noObjectsMessage = "No objects detected in this image!"

// NewAnnotateCmd creates the annotate command.
func NewAnnotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate <image>",
		Short: "Detect objects in an image and write the annotated copy",
		Long: `Annotate sends one image to the detection server, draws every object
scored above 20% confidence and writes the result.

Examples:
  detectstudio annotate street.jpg
  detectstudio annotate street.jpg -o boxes.png --detector gpu-box:8080`,
		Args: cobra.ExactArgs(1),
		RunE: runAnnotateCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Output file (defaults to the configured output path)")

	return cmd
}

func runAnnotateCmd(cmd *cobra.Command, args []string) error {
	if err := imageio.CheckSupported(args[0]); err != nil {
		return err
	}

	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output == "" {
		output = cfg.GetOutputPath()
	}

	det := processing.NewRemoteDetector(cfg.GetDetectorHost(), log)
	defer det.Close()

	annotator, err := processing.NewAnnotator(det, nil, output, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.GetDetectTimeout())
	defer cancel()

	res, err := annotator.AnnotateFile(ctx, args[0])
	if errors.Is(err, render.ErrNoDetections) {
		fmt.Fprintln(cmd.OutOrStdout(), noObjectsMessage)
		return nil
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d objects written to %s\n", len(res.Detections), res.OutputPath)
	for _, c := range res.Counts() {
		fmt.Fprintf(out, "  %-16s %d\n", c.ClassName, c.Count)
	}
	return nil
}
