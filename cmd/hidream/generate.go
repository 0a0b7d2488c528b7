package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hidream/internal/resolve"
	"hidream/internal/store"
	"hidream/pkg/types"
)

type generateFlags struct {
	model      string
	path       string
	seed       int64
	resolution string
	output     string
}

func newGenerateCmd(g *globalFlags) *cobra.Command {
	f := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate PROMPT",
		Short: "Generate one image from a prompt and save it",
		Example: `  hidream generate "A cat holding a sign that says \"Hi-Dreams.ai\"." -m fast -s 42
  hidream generate "a lighthouse at dusk" -p ~/models/my-hidream -r 768x1360 -o s3://bucket/out.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, g, f, strings.Join(args, " "))
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.model, "model", "m", "", "Model kind: dev|full|fast (default from config, else dev)")
	fl.StringVarP(&f.path, "path", "p", "", "Custom model directory; overrides --model")
	fl.Int64VarP(&f.seed, "seed", "s", resolve.RandomSeedSentinel, "Seed; -1 picks a random one")
	fl.StringVarP(&f.resolution, "resolution", "r", resolve.DefaultResolution.String(), "Resolution as HxW")
	fl.StringVarP(&f.output, "output", "o", "output.png", "Output file or s3://bucket/key")
	return cmd
}

func runGenerate(cmd *cobra.Command, g *globalFlags, f *generateFlags, prompt string) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()
	ctx := log.WithContext(cmd.Context())
	out := cmd.OutOrStdout()

	raw := types.RawRequest{
		ModelKind:  f.model,
		CustomPath: f.path,
		Prompt:     prompt,
		Resolution: f.resolution,
		Seed:       strconv.FormatInt(f.seed, 10),
	}
	if raw.ModelKind == "" && raw.CustomPath == "" {
		raw.ModelKind, raw.CustomPath = cfg.Model, cfg.CustomPath
	}

	mgr, _, err := newManager(cfg, log)
	if err != nil {
		return err
	}
	defer mgr.Close()

	req, err := mgr.Resolve(raw)
	if err != nil {
		return err
	}
	// Check the destination before spending minutes on a load.
	up, name, err := store.ForTarget(ctx, f.output)
	if err != nil {
		return err
	}

	if req.Model.IsCustom() {
		fmt.Fprintf(out, "Loading custom model from %s...\n", req.Model.Path)
	} else {
		fmt.Fprintf(out, "Loading predefined model %s...\n", req.Model.Kind)
	}
	if err := mgr.Ensure(ctx, req.Model); err != nil {
		return err
	}
	fmt.Fprintln(out, "Model loaded successfully!")

	res, err := mgr.Generate(ctx, req)
	if err != nil {
		return err
	}
	err = up.Upload(ctx, store.UploadParams{
		Name:        name,
		Data:        res.Image,
		ContentType: store.ContentTypePNG,
		Metadata: map[string]string{
			"model":      res.Model.String(),
			"seed":       strconv.FormatInt(res.Seed, 10),
			"resolution": res.Resolution.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", f.output, err)
	}
	fmt.Fprintf(out, "Image saved to %s, elapsed time: %.2f seconds\n", f.output, res.Duration.Seconds())
	fmt.Fprintf(out, "%s %d\n", color.New(color.FgGreen, color.Bold).Sprint("Seed used:"), res.Seed)
	return nil
}
