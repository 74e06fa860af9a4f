package main

import (
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/b1naryth1ef/layerlist"
	"github.com/b1naryth1ef/layerlist/build"
	"github.com/b1naryth1ef/layerlist/dl"
	"github.com/b1naryth1ef/layerlist/serve"
	"github.com/urfave/cli/v2"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:        "layerlist",
		Description: "loads shapefile layer manifests and renders a layer picker page",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:  "config",
				Usage: "path to the configuration file",
				Value: "config.hcl",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "load the manifest once and print the result as JSON",
				Action: commandFetch,
			},
			{
				Name:   "build",
				Usage:  "render the layer page into the configured outputs",
				Action: commandBuild,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "only build the named output",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "fail instead of rendering a page with the load error",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "serve the layer page, loading the manifest on every request",
				Action: commandServe,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "address to listen on, overrides the config",
					},
				},
			},
		},
	}
}

func newLogger(ctx *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	if ctx.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(ctx.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

func loadConfig(ctx *cli.Context) (*layerlist.Config, error) {
	return layerlist.LoadConfig(ctx.Path("config"))
}

func commandFetch(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	result := dl.Load(
		ctx.Context,
		dl.NewClient(config.HTTPTimeout()),
		config.Manifest.BaseURL,
		dl.VariantFromConfig(config.Manifest),
		newLogger(ctx),
	)

	err = writeResult(ctx.App.Writer, result)
	if err != nil {
		return err
	}

	if result.Failed() {
		return cli.Exit("", 1)
	}
	return nil
}

func writeResult(w io.Writer, result layerlist.LoadResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func commandBuild(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	return build.Build(ctx.Context, config, build.BuildOpts{
		Output: ctx.String("output"),
		Strict: ctx.Bool("strict"),
		Logger: newLogger(ctx),
	})
}

func commandServe(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	listen := config.Server.Listen
	if ctx.String("listen") != "" {
		listen = ctx.String("listen")
	}

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := serve.NewServer(serve.Config{
		Listen:    listen,
		BaseURL:   config.Manifest.BaseURL,
		Variant:   dl.VariantFromConfig(config.Manifest),
		StaticDir: config.Server.StaticDir,
		Fetcher:   dl.NewClient(config.HTTPTimeout()),
		Logger:    newLogger(ctx),
	})
	if err != nil {
		return err
	}

	return server.Serve(sigCtx)
}
