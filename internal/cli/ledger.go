package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type accountCmd struct {
	app         *App
	currency    string
	description string
}

func (*accountCmd) Name() string     { return "account" }
func (*accountCmd) Synopsis() string { return "add an account to the open save" }
func (*accountCmd) Usage() string {
	return "account [-currency <code>] [-d <description>] <name>\n"
}

func (c *accountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "EUR", "ISO currency code of the account.")
	f.StringVar(&c.description, "d", "", "Free-text description.")
}

func (c *accountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	name, err := oneArg(f, "account name")
	if err != nil {
		return c.app.report(ctx, err)
	}
	a, err := c.app.ledger.AddAccount(ctx, name, c.currency, c.description)
	if err != nil {
		return c.app.report(ctx, err)
	}
	fmt.Fprintf(c.app.out, "Added account %q (%s)\n", a.Name, a.Currency)
	return subcommands.ExitSuccess
}

type accountsCmd struct{ app *App }

func (*accountsCmd) Name() string           { return "accounts" }
func (*accountsCmd) Synopsis() string       { return "list accounts" }
func (*accountsCmd) Usage() string          { return "accounts\n" }
func (*accountsCmd) SetFlags(*flag.FlagSet) {}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	list, err := c.app.ledger.Accounts(ctx)
	if err != nil {
		return c.app.report(ctx, err)
	}

	tw := tabwriter.NewWriter(c.app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCURRENCY\tDESCRIPTION")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Name, a.Currency, a.Description)
	}
	_ = tw.Flush()
	return subcommands.ExitSuccess
}

type categoryCmd struct {
	app    *App
	parent string
}

func (*categoryCmd) Name() string     { return "category" }
func (*categoryCmd) Synopsis() string { return "add a transaction category" }
func (*categoryCmd) Usage() string    { return "category [-parent <name>] <name>\n" }

func (c *categoryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.parent, "parent", "", "Name of the parent category.")
}

func (c *categoryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	name, err := oneArg(f, "category name")
	if err != nil {
		return c.app.report(ctx, err)
	}
	if _, err := c.app.ledger.AddCategory(ctx, name, c.parent); err != nil {
		return c.app.report(ctx, err)
	}
	fmt.Fprintf(c.app.out, "Added category %q\n", name)
	return subcommands.ExitSuccess
}

type categoriesCmd struct{ app *App }

func (*categoriesCmd) Name() string           { return "categories" }
func (*categoriesCmd) Synopsis() string       { return "list categories" }
func (*categoriesCmd) Usage() string          { return "categories\n" }
func (*categoriesCmd) SetFlags(*flag.FlagSet) {}

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	list, err := c.app.ledger.Categories(ctx)
	if err != nil {
		return c.app.report(ctx, err)
	}

	names := make(map[string]string, len(list))
	for _, cat := range list {
		names[cat.ID] = cat.Name
	}
	for _, cat := range list {
		if cat.ParentID != "" {
			fmt.Fprintf(c.app.out, "%s / %s\n", names[cat.ParentID], cat.Name)
		} else {
			fmt.Fprintln(c.app.out, cat.Name)
		}
	}
	return subcommands.ExitSuccess
}

type txCmd struct {
	app         *App
	account     string
	category    string
	description string
	amount      string
	date        string
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "record a transaction" }
func (*txCmd) Usage() string {
	return `tx -a <account> [-c <category>] [-d <description>] [-date YYYY-MM-DD] -m <amount>

  Negative amounts are expenses. The amount may also be given as the last
  argument after "--", e.g. tx -a cash -- -3.50
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account name (required).")
	f.StringVar(&c.category, "c", "", "Category name.")
	f.StringVar(&c.description, "d", "", "Free-text description.")
	f.StringVar(&c.amount, "m", "", "Signed amount, e.g. -12.50.")
	f.StringVar(&c.date, "date", "", "Booking date; defaults to now.")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.app.report(ctx, c.run(ctx, f))
}

func (c *txCmd) run(ctx context.Context, f *flag.FlagSet) error {
	if c.account == "" {
		return badInput(errors.New("an account is required (-a)"))
	}

	raw := c.amount
	if raw == "" && f.NArg() == 1 {
		raw = f.Arg(0)
	}
	if raw == "" {
		return badInput(errors.New("an amount is required (-m)"))
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return badInput(fmt.Errorf("invalid amount %q", raw))
	}

	var at time.Time
	if c.date != "" {
		if at, err = time.ParseInLocation(dateLayout, c.date, time.Local); err != nil {
			return badInput(fmt.Errorf("invalid date %q, want YYYY-MM-DD", c.date))
		}
	}

	t, err := c.app.ledger.AddTransaction(ctx, c.account, c.category, amount, c.description, at)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.app.out, "Recorded %s on %q\n", t.Amount.StringFixed(2), c.account)
	return nil
}

type txsCmd struct{ app *App }

func (*txsCmd) Name() string           { return "txs" }
func (*txsCmd) Synopsis() string       { return "list the transactions of an account" }
func (*txsCmd) Usage() string          { return "txs <account>\n" }
func (*txsCmd) SetFlags(*flag.FlagSet) {}

func (c *txsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	name, err := oneArg(f, "account name")
	if err != nil {
		return c.app.report(ctx, err)
	}
	list, err := c.app.ledger.Transactions(ctx, name)
	if err != nil {
		return c.app.report(ctx, err)
	}

	tw := tabwriter.NewWriter(c.app.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DATE\tAMOUNT\t\tDESCRIPTION")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t\t%s\n", t.OccurredAt.Format(dateLayout), t.Amount.StringFixed(2), t.Description)
	}
	_ = tw.Flush()
	return subcommands.ExitSuccess
}

type balanceCmd struct{ app *App }

func (*balanceCmd) Name() string           { return "balance" }
func (*balanceCmd) Synopsis() string       { return "show the balance of every account" }
func (*balanceCmd) Usage() string          { return "balance\n" }
func (*balanceCmd) SetFlags(*flag.FlagSet) {}

func (c *balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	list, err := c.app.ledger.Balances(ctx)
	if err != nil {
		return c.app.report(ctx, err)
	}

	totals := map[string]decimal.Decimal{}
	tw := tabwriter.NewWriter(c.app.out, 0, 4, 2, ' ', 0)
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Account, b.Amount.StringFixed(2), b.Currency)
		totals[b.Currency] = totals[b.Currency].Add(b.Amount)
	}
	for _, cur := range slices.Sorted(maps.Keys(totals)) {
		fmt.Fprintf(tw, "TOTAL\t%s\t%s\n", totals[cur].StringFixed(2), cur)
	}
	_ = tw.Flush()
	return subcommands.ExitSuccess
}
