package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/comptoir/backoffice/cmd/backofficectl/cli"
	"github.com/comptoir/backoffice/internal/app"
	"github.com/comptoir/backoffice/internal/platform/posapi"
	"github.com/comptoir/backoffice/internal/sales/present"
	"github.com/comptoir/backoffice/jobs"
)

const usage = `usage: backofficectl <command> [flags]

commands:
  sales      browse the sale listing
  reconcile  enqueue a sale totals reconciliation
  queue      show job queue statistics
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	slog.SetDefault(app.NewLogger(cfg, "backofficectl"))

	switch args[0] {
	case "sales":
		return runSales(ctx, cfg, args[1:], stdout, stderr)
	case "reconcile":
		return runReconcile(ctx, cfg, args[1:], stdout, stderr)
	case "queue":
		return runQueue(ctx, cfg, args[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}
}

func runSales(ctx context.Context, cfg *app.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sales", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := cli.SalesBrowseOptions{Stdout: stdout, Stderr: stderr}
	fs.IntVar(&opts.Page, "page", 1, "page number")
	fs.IntVar(&opts.Limit, "limit", cfg.SalesPageSize, "page size")
	fs.StringVar(&opts.StartDate, "from", "", "start date (YYYY-MM-DD)")
	fs.StringVar(&opts.EndDate, "to", "", "end date (YYYY-MM-DD)")
	fs.StringVar(&opts.PaymentMethod, "method", "", "payment method (CASH, CHECK, CREDIT)")
	fs.StringVar(&opts.CustomerID, "customer", "", "customer id")
	fs.BoolVar(&opts.JSONOutput, "json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	opts.Timeout = cfg.POSAPITimeout

	client := posapi.New(posapi.Config{BaseURL: cfg.POSAPIURL, Token: cfg.POSAPIToken, Timeout: cfg.POSAPITimeout})
	defer func() {
		_ = client.Close()
	}()
	loc, _ := cfg.Location()
	salesCLI := cli.NewSalesCLI(client, present.NewFormatter(cfg.CurrencySuffix, loc), present.Navigator{ProfileBaseURL: cfg.CRMCustomerURL})
	return salesCLI.BrowseCommand(ctx, opts)
}

func runReconcile(ctx context.Context, cfg *app.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var payload jobs.ReconcilePayload
	fs.StringVar(&payload.StartDate, "from", "", "start date (YYYY-MM-DD)")
	fs.StringVar(&payload.EndDate, "to", "", "end date (YYYY-MM-DD)")
	fs.StringVar(&payload.PaymentMethod, "method", "", "payment method")
	fs.IntVar(&payload.MaxPages, "max-pages", cfg.ReconcileMaxPages, "maximum listing pages to scan")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	jobsCLI, err := cli.NewJobsCLI(cfg.Redis())
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "reconcile: %v\n", err)
		return 1
	}
	defer func() {
		_ = jobsCLI.Close()
	}()
	info, err := jobsCLI.TriggerReconcile(ctx, payload)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "reconcile: enqueue: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "enqueued %s (%s) on queue %s\n", info.ID, info.Type, info.Queue)
	return 0
}

func runQueue(ctx context.Context, cfg *app.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("queue", flag.ContinueOnError)
	fs.SetOutput(stderr)
	size := fs.Int("scheduled", 10, "number of scheduled tasks to list")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	jobsCLI, err := cli.NewJobsCLI(cfg.Redis())
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "queue: %v\n", err)
		return 1
	}
	defer func() {
		_ = jobsCLI.Close()
	}()
	stats, err := jobsCLI.InspectQueue(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "queue: %v\n", err)
		return 1
	}
	scheduled, err := jobsCLI.ListScheduled(ctx, *size)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "queue: list scheduled: %v\n", err)
		return 1
	}
	cli.RenderQueueStats(stdout, stats, scheduled)
	return 0
}
