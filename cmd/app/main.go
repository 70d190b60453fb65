package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/orgtasks/internal"
	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/orgdate"
	"github.com/starford/orgtasks/internal/query"
	pkgconfig "github.com/starford/orgtasks/pkg/config"
)

var version = "dev"

// cliSession is the snapshot key used by one-shot CLI commands.
const cliSession = "cli"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	load := pkgconfig.LoadOptional[internal.Config]
	if cmd.IsSet("config") {
		load = pkgconfig.Load[internal.Config]
	}
	if err := load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	err = internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithLogOutput(os.Stderr),
		internal.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func openEngine(cmd *cli.Command) (*internal.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.Open(internal.WithConfig(cfg), internal.WithLogOutput(io.Discard))
}

func printTask(w io.Writer, index int, t models.Task) {
	var b strings.Builder
	fmt.Fprintf(&b, "%3d. %s", index, t.State)
	if t.Priority != "" {
		fmt.Fprintf(&b, " [#%s]", t.Priority)
	}
	b.WriteString(" " + t.Title)
	if t.Scheduled != nil {
		b.WriteString("  (" + orgdate.Format(*t.Scheduled) + ")")
	}
	fmt.Fprintln(w, b.String())
}

func list(ctx context.Context, cmd *cli.Command) error {
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	req := query.Request{View: query.View(cmd.String("view")), Limit: int(cmd.Int("limit"))}
	if raw := cmd.String("date"); raw != "" {
		d, err := orgdate.ParseStrict(raw)
		if err != nil {
			return err
		}
		req.Date = d
	}
	res, err := e.Service.List(ctx, cliSession, req)
	if err != nil {
		return err
	}
	if len(res.Tasks) == 0 {
		fmt.Fprintf(cmd.Root().Writer, "no tasks for %s\n", res.View)
		return nil
	}
	for _, t := range res.Tasks {
		printTask(cmd.Root().Writer, t.Index, t.Task)
	}
	if res.Total > len(res.Tasks) {
		fmt.Fprintf(cmd.Root().Writer, "... %d more\n", res.Total-len(res.Tasks))
	}
	return nil
}

func add(ctx context.Context, cmd *cli.Command) error {
	text := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("task text is required")
	}
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	t, err := e.Service.Create(ctx, text)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.Root().Writer, "added: ")
	printTask(cmd.Root().Writer, 1, t)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "orgtasks",
		Usage:   "Personal task engine over a single org-mode document",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: serveMCP,
			},
			{
				Name:  "list",
				Usage: "Print a task view",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "view",
						Usage: "today, tomorrow, week, overdue, all or date",
						Value: string(query.ViewToday),
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "Date for the date view (YYYY-MM-DD)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Result cap for the all view",
					},
				},
				Action: list,
			},
			{
				Name:      "add",
				Usage:     "Append a task",
				ArgsUsage: "<text>",
				Action:    add,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
