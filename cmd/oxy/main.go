// Command oxy is the CLI entrypoint for the kernel: it loads a config
// file, builds a pkg/launcher.Launcher around it, and runs a single
// workflow or agentic workflow to completion, or serves their events over
// SSE (spec §6, §4.2, §4.5).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/oxy-run/oxy/pkg/launcher"
	"github.com/oxy-run/oxy/pkg/transport/sse"
)

// CLI defines the command-line interface.
type CLI struct {
	Config string `short:"c" help:"Path to config file." type:"path" required:""`

	Run     RunCmd     `cmd:"" help:"Run a declarative workflow to completion."`
	Agentic AgenticCmd `cmd:"" help:"Run an agentic (FSM) workflow to completion."`
	Serve   ServeCmd   `cmd:"" help:"Serve run events over SSE."`
}

// RunCmd runs a declarative workflow by name.
type RunCmd struct {
	Name  string `arg:"" help:"Workflow name."`
	Input string `help:"JSON object to pass as the workflow's input." default:"{}"`
}

func (c *RunCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	l, err := launcher.New(ctx, cli.Config)
	if err != nil {
		return err
	}
	defer l.Close()

	var input map[string]any
	if err := json.Unmarshal([]byte(c.Input), &input); err != nil {
		return fmt.Errorf("parse --input: %w", err)
	}

	results, err := l.RunWorkflow(ctx, uuid.NewString(), c.Name, input)
	if err != nil {
		return err
	}
	return printJSON(results)
}

// AgenticCmd runs an agentic workflow by name.
type AgenticCmd struct {
	Name      string `arg:"" help:"Agentic workflow name."`
	Objective string `arg:"" help:"Objective to pursue."`
}

func (c *AgenticCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	l, err := launcher.New(ctx, cli.Config)
	if err != nil {
		return err
	}
	defer l.Close()

	result, err := l.RunAgenticWorkflow(ctx, uuid.NewString(), c.Name, c.Objective)
	if err != nil {
		return err
	}
	return printJSON(result)
}

// ServeCmd serves run events over SSE, without driving any run itself.
// Run topics live in the serving process's own Launcher, so runs started
// by a separate `oxy run`/`oxy agentic` process are not visible to it.
type ServeCmd struct {
	Port int `help:"Port to listen on." default:"8085"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	l, err := launcher.New(ctx, cli.Config)
	if err != nil {
		return err
	}
	defer l.Close()

	srv := sse.New(l, slog.Default())
	httpSrv := &http.Server{Addr: fmt.Sprintf(":%d", c.Port), Handler: srv.Router()}

	go func() {
		<-ctx.Done()
		httpSrv.Close()
	}()

	slog.Info("oxy: serving run events", "port", c.Port)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("oxy: shutting down")
		cancel()
	}()
	return ctx, cancel
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("oxy"),
		kong.Description("Oxy kernel CLI."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
