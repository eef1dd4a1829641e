package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/comptoir/backoffice/internal/sales"
	"github.com/comptoir/backoffice/internal/sales/listing"
	"github.com/comptoir/backoffice/internal/sales/present"
)

// SalesBrowseOptions defines available flags for the sales command.
type SalesBrowseOptions struct {
	Page          int
	Limit         int
	StartDate     string
	EndDate       string
	PaymentMethod string
	CustomerID    string
	JSONOutput    bool
	Timeout       time.Duration
	Stdout        io.Writer
	Stderr        io.Writer
}

// SalesBrowseSummary is the JSON output of the sales command.
type SalesBrowseSummary struct {
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
	Total int           `json:"total"`
	Rows  []present.Row `json:"rows"`
}

// SalesCLI browses the remote sale listing the way the list page does.
type SalesCLI struct {
	fetcher   listing.Fetcher
	formatter *present.Formatter
	nav       present.Navigator
}

// NewSalesCLI constructs the helper.
func NewSalesCLI(fetcher listing.Fetcher, formatter *present.Formatter, nav present.Navigator) *SalesCLI {
	if formatter == nil {
		formatter = present.NewFormatter("", nil)
	}
	return &SalesCLI{fetcher: fetcher, formatter: formatter, nav: nav}
}

// BrowseCommand fetches one listing page and prints it. It returns the process exit code.
func (c *SalesCLI) BrowseCommand(ctx context.Context, opts SalesBrowseOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	form := sales.FilterForm{
		StartDate:     opts.StartDate,
		EndDate:       opts.EndDate,
		PaymentMethod: opts.PaymentMethod,
	}.Normalize()
	if errs := form.Validate(); errs != nil {
		for field, msg := range errs {
			_, _ = fmt.Fprintf(opts.Stderr, "sales: %s: %s\n", field, msg)
		}
		return 2
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	coordinator := listing.NewCoordinator(c.fetcher, listing.Options{
		Limit:    opts.Limit,
		Defaults: listing.Filters{CustomerID: opts.CustomerID},
		Timeout:  timeout,
	})
	coordinator.SetFilters(ctx, listing.Filters{
		StartDate:     form.StartDate,
		EndDate:       form.EndDate,
		PaymentMethod: form.PaymentMethod,
		CustomerID:    opts.CustomerID,
	})
	if err := coordinator.Wait(ctx); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "sales: %v\n", err)
		return 1
	}
	if opts.Page > 1 {
		if !coordinator.SetPage(ctx, opts.Page) {
			state := coordinator.Snapshot()
			_, _ = fmt.Fprintf(opts.Stderr, "sales: page %d out of range (1-%d)\n", opts.Page, state.Pagination.Pages)
			return 2
		}
		if err := coordinator.Wait(ctx); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "sales: %v\n", err)
			return 1
		}
	}

	state := coordinator.Snapshot()
	if state.Error != "" {
		_, _ = fmt.Fprintf(opts.Stderr, "sales: %s\n", state.Error)
		return 1
	}
	rows := present.BuildRows(state.Sales, c.nav)
	if opts.JSONOutput {
		summary := SalesBrowseSummary{
			Page:  state.Pagination.Page,
			Pages: state.Pagination.Pages,
			Total: state.Pagination.Total,
			Rows:  rows,
		}
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "sales: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	c.renderRows(opts.Stdout, state, rows)
	return 0
}

func (c *SalesCLI) renderRows(out io.Writer, state listing.State, rows []present.Row) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(out, "Aucune vente ne correspond aux filtres.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "REFERENCE\tDATE\tCLIENT\tPAIEMENT\tSTATUT\tTOTAL TTC")
	for _, row := range rows {
		badges := make([]string, 0, len(row.Badges))
		for _, badge := range row.Badges {
			badges = append(badges, badge.Label)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Reference,
			c.formatter.DateTime(row.SaleDate),
			row.Customer.Display,
			row.Payment.Label,
			strings.Join(badges, ", "),
			c.formatter.Money(row.TotalInclTax),
		)
	}
	_ = tw.Flush()
	p := state.Pagination
	_, _ = fmt.Fprintf(out, "Page %d/%d, %d ventes\n", p.Page, p.Pages, p.Total)
}
