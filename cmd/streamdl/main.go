// The streamdl command downloads HLS streams into a single media file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agleyzer/streamdl/internal/acquire"
	"github.com/agleyzer/streamdl/internal/config"
	"github.com/agleyzer/streamdl/internal/convert"
	"github.com/agleyzer/streamdl/internal/downloader"
	"github.com/agleyzer/streamdl/internal/progress"
	"github.com/agleyzer/streamdl/internal/transport"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	version = "1.0.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var (
		configFile string
		v          *viper.Viper
	)

	root := &cobra.Command{
		Use:   "streamdl [flags] <playlist>",
		Short: "Download HLS streams into a single file",
		Long: `streamdl downloads the segments of an HLS playlist, in order, into one file.

The source is a playlist URL, or a playlist file with --local. Master
playlists list their variants and ask which one to download, unless
--variant is given. With --live the playlist is reloaded until interrupted
and only new segments are appended.`,
		Example: `  streamdl https://example.com/live/index.m3u8
  streamdl -o show.ts -s 1-3 https://example.com/vod/master.m3u8
  streamdl --live -c mp3 https://example.com/radio/playlist.m3u8
  streamdl -l -b https://example.com/vod/ saved.m3u8`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if v, err = config.NewViper(configFile); err != nil {
				return err
			}
			return config.BindFlags(cmd.Flags(), v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(v, args, time.Now())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, stdin, stdout, stderr)
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is $HOME/.config/streamdl/streamdl.yaml)")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "config [flags] [playlist]",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(v, withPlaceholderSource(args), time.Now())
			if err != nil {
				return err
			}
			return config.Dump(cmd.OutOrStdout(), cfg)
		},
	})

	return root
}

// withPlaceholderSource lets the config command run without a source.
func withPlaceholderSource(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return []string{"https://example.invalid/index.m3u8"}
}

func run(ctx context.Context, cfg *config.RunConfig, stdin io.Reader, stdout, stderr io.Writer) error {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))

	logger.Info("streamdl starting", "version", version, "source", cfg.Source, "output", cfg.Output)

	client := transport.New(cfg.Headers, cfg.Timeout)

	dl := downloader.New(client, cfg.Pacing, logger)
	if cfg.Progress {
		dl.Progress = &progress.Bar{}
	} else {
		dl.Progress = progress.NewLog(logger)
	}

	var chooser acquire.Chooser = &acquire.PromptChooser{In: stdin, Out: stdout}
	if cfg.Variant != config.NoVariant {
		chooser = acquire.FixedChooser(cfg.Variant)
	}

	converter := convert.New("", hclogLevel(cfg.Verbosity), stderr)

	driver := acquire.New(client, dl, chooser, converter, logger)
	driver.Out = stdout

	if err := driver.Run(ctx, cfg); err != nil {
		return err
	}

	logger.Info("streamdl finished", "output", cfg.Output)
	return nil
}

// hclogLevel mirrors the slog level chosen by the verbosity count.
func hclogLevel(verbosity int) hclog.Level {
	switch {
	case verbosity >= 2:
		return hclog.Debug
	case verbosity == 1:
		return hclog.Info
	default:
		return hclog.Warn
	}
}
