package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"

	"hearthstats/internal/builder"
	"hearthstats/internal/cardname"
	"hearthstats/internal/components/chrono"
	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/config"
	"hearthstats/internal/db"
	"hearthstats/internal/scrapers/cardapi"
	"hearthstats/internal/scrapers/hearthpwn"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// selection is the set of builders a run executes.
type selection struct {
	cards      bool
	decks      bool
	collection bool
}

func (s selection) empty() bool {
	return !s.cards && !s.decks && !s.collection
}

type buildFlags struct {
	selection
	perClass    bool
	count       int
	filter      string
	sort        string
	patch       int
	concurrency int
}

func addBuildFlags(cmd *cobra.Command, f *buildFlags) {
	flags := cmd.Flags()
	flags.BoolVar(&f.cards, "cards", false, "Rebuild the card catalog from the card api.")
	flags.BoolVar(&f.decks, "decks", false, "Discover and extract hearthpwn decks.")
	flags.BoolVar(&f.collection, "collection", false, "Import the owned collection from hearthpwn.")
	flags.BoolVar(&f.perClass, "per-class", false, "Discover decks class by class, --count applies to each class.")
	flags.IntVar(&f.count, "count", 0, "Number of decks to discover, 0 samples a tenth of the listing.")
	flags.StringVar(&f.filter, "filter", "", "Listing filter query string.")
	flags.StringVar(&f.sort, "sort", "", "Listing sort order.")
	flags.IntVar(&f.patch, "patch", 0, "Listing patch id, 0 uses the latest patch.")
	flags.IntVar(&f.concurrency, "concurrency", 0, "Decks extracted in parallel.")
}

// apply overrides the deck settings of c with the flags that were given.
func (f buildFlags) apply(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("per-class") {
		c.Decks.PerClass = f.perClass
	}
	if flags.Changed("count") {
		c.Decks.Count = f.count
	}
	if flags.Changed("filter") {
		c.Decks.Filter = f.filter
	}
	if flags.Changed("sort") {
		c.Decks.Sort = f.sort
	}
	if flags.Changed("patch") {
		c.Decks.Patch = f.patch
	}
	if flags.Changed("concurrency") {
		c.Decks.Concurrency = f.concurrency
	}
	return c.Validate()
}

var build buildFlags

var buildCmd = &cobra.Command{
	Use:   "build [--cards] [--decks] [--collection]",
	Short: "Runs the selected builders in the order cards, collection, decks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if build.empty() {
			return fmt.Errorf("select at least one of --cards, --decks or --collection")
		}
		err := build.apply(cmd, &cfg)
		if err != nil {
			return err
		}

		summaries, err := runBuild(cmd.Context(), cfg, build.selection, tel)
		if err != nil {
			return err
		}
		renderSummaries(cmd.OutOrStdout(), summaries)
		return summaryError(summaries)
	},
}

func init() {
	addBuildFlags(buildCmd, &build)
	rootCmd.AddCommand(buildCmd)
}

// runBuild opens the database and runs every selected builder. A failed
// builder does not stop the ones after it.
func runBuild(ctx context.Context, c config.Config, sel selection, tel telemetry.API) ([]builder.Summary, error) {
	database, err := db.Open(c.Database.File)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	var summaries []builder.Summary
	if sel.cards {
		summaries = append(summaries, buildCards(ctx, c, database, tel))
	}

	var site *hearthpwn.Client
	if sel.collection || sel.decks {
		site, err = hearthpwn.NewClient(hearthpwn.ClientOptions{
			BaseUrl:           c.Hearthpwn.BaseUrl,
			RequestsPerSecond: c.Hearthpwn.RequestsPerSecond,
			Timeout:           c.Hearthpwn.Timeout(),
		}, tel)
		if err != nil {
			return summaries, fmt.Errorf("create hearthpwn client: %w", err)
		}
	}
	if sel.collection {
		summaries = append(summaries, importCollection(ctx, c, database, site, tel))
	}
	if sel.decks {
		summaries = append(summaries, buildDecks(ctx, c, database, site, tel)...)
	}
	return summaries, nil
}

func buildCards(ctx context.Context, c config.Config, database *sql.DB, tel telemetry.API) builder.Summary {
	client := cardapi.NewClient(cardapi.ClientOptions{
		BaseUrl:           c.CardApi.BaseUrl,
		Key:               c.CardApi.Key,
		PageSize:          c.CardApi.PageSize,
		RequestsPerSecond: c.Hearthpwn.RequestsPerSecond,
		Timeout:           c.Hearthpwn.Timeout(),
	}, tel)
	catalog := builder.NewCatalogBuilder(client, db.NewMakeTx(database), c.Hearthpwn.RetryPolicy(), tel)
	summary, _ := catalog.Build(ctx)
	return summary
}

func importCollection(
	ctx context.Context,
	c config.Config,
	database *sql.DB,
	site *hearthpwn.Client,
	tel telemetry.API,
) builder.Summary {
	importer := builder.NewCollectionImporter(
		site,
		db.New(database),
		db.NewMakeTx(database),
		c.Hearthpwn.RetryPolicy(),
		c.Collection.MaxCopies,
		tel,
	)
	summary, _ := importer.Import(ctx, c.Hearthpwn.Session)
	return summary
}

func buildDecks(
	ctx context.Context,
	c config.Config,
	database *sql.DB,
	site *hearthpwn.Client,
	tel telemetry.API,
) []builder.Summary {
	discoverer := builder.NewDiscoverer(site, c.Hearthpwn.RetryPolicy(), tel)
	discovery, _ := discoverer.Discover(ctx, builder.DiscoverOptions{
		Filter:   c.Decks.Filter,
		Sort:     c.Decks.Sort,
		Patch:    c.Decks.Patch,
		Count:    c.Decks.Count,
		PerClass: c.Decks.PerClass,
	})
	summaries := []builder.Summary{discovery.Summary}
	if len(discovery.Decks) == 0 || discovery.Summary.NeedsCredential() {
		return summaries
	}

	names, err := resolver(ctx, c, db.New(database))
	if err != nil {
		summaries = append(summaries, builder.Summary{Builder: "decks", Fatal: err})
		return summaries
	}
	extractor := builder.NewDeckExtractor(
		site,
		db.NewMakeTx(database),
		names,
		c.Hearthpwn.RetryPolicy(),
		c.Decks.Concurrency,
		chrono.NewStandardTime(),
		tel,
	)
	return append(summaries, extractor.ExtractAll(ctx, discovery.Decks))
}

// resolver returns the name reconciliation configured in names.reconcile.
func resolver(ctx context.Context, c config.Config, qry *db.Queries) (cardname.Resolver, error) {
	if c.Names.Reconcile != config.ReconcileFolded {
		return cardname.Exact{}, nil
	}
	catalog, err := qry.GetCardNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("read card catalog: %w", err)
	}
	return cardname.NewFolded(catalog), nil
}

func renderSummaries(w io.Writer, summaries []builder.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"builder", "attempted", "succeeded", "skipped", "failed", "status"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Builder, s.Attempted, s.Succeeded, s.Skipped, s.Failed, status(s)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

func status(s builder.Summary) string {
	switch {
	case s.NeedsCredential():
		return "credential required"
	case s.Fatal != nil && s.Transient():
		return "stopped (transient): " + s.Fatal.Error()
	case s.Fatal != nil:
		return "stopped: " + s.Fatal.Error()
	case s.Failed > 0 && s.Transient():
		return strconv.Itoa(s.TransportFailures) + " transient failures"
	case s.Failed > 0:
		return "failures"
	}
	return "ok"
}

// summaryError turns the outcome of a run into the error the process exits
// with. Credential errors win so that the exit code asks for a new one.
func summaryError(summaries []builder.Summary) error {
	var errs []error
	for _, s := range summaries {
		if s.NeedsCredential() {
			return s.Fatal
		}
		if s.Fatal != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Builder, s.Fatal))
		} else if s.Failed > 0 {
			errs = append(errs, fmt.Errorf("%s: %d of %d failed", s.Builder, s.Failed, s.Attempted))
		}
	}
	return errors.Join(errs...)
}

