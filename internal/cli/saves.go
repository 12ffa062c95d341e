package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/ledgerkeeper/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
)

func oneArg(f *flag.FlagSet, what string) (string, error) {
	if f.NArg() != 1 {
		return "", badInput(fmt.Errorf("expected exactly one %s", what))
	}
	return f.Arg(0), nil
}

type newCmd struct {
	app         *App
	description string
}

func (*newCmd) Name() string     { return "new" }
func (*newCmd) Synopsis() string { return "create a new save and open it" }
func (*newCmd) Usage() string {
	return `new [-d <description>] <name>

  Creates an empty ledger protected by a new password and opens it.
`
}

func (c *newCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.description, "d", "", "Free-text description of the save.")
}

func (c *newCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.app.report(ctx, c.run(ctx, f))
}

func (c *newCmd) run(ctx context.Context, f *flag.FlagSet) error {
	name, err := oneArg(f, "save name")
	if err != nil {
		return err
	}
	pw, err := c.app.newPassword(ctx)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	if err := c.app.session.CreateSave(ctx, name, c.description, string(pw)); err != nil {
		return err
	}
	fmt.Fprintf(c.app.out, "Created save %q\n", name)
	return nil
}

type openCmd struct{ app *App }

func (*openCmd) Name() string           { return "open" }
func (*openCmd) Synopsis() string       { return "open an existing save" }
func (*openCmd) Usage() string          { return "open <name>\n" }
func (*openCmd) SetFlags(*flag.FlagSet) {}

func (c *openCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.app.report(ctx, c.run(ctx, f))
}

func (c *openCmd) run(ctx context.Context, f *flag.FlagSet) error {
	name, err := oneArg(f, "save name")
	if err != nil {
		return err
	}
	pw, err := c.app.password(ctx, "Password")
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	if err := c.app.session.OpenSave(ctx, name, string(pw)); err != nil {
		return err
	}
	fmt.Fprintf(c.app.out, "Opened save %q\n", name)
	return nil
}

type saveCmd struct{ app *App }

func (*saveCmd) Name() string           { return "save" }
func (*saveCmd) Synopsis() string       { return "write the open save to disk" }
func (*saveCmd) Usage() string          { return "save\n" }
func (*saveCmd) SetFlags(*flag.FlagSet) {}

func (c *saveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if err := c.app.session.SaveCurrent(ctx); err != nil {
		return c.app.report(ctx, err)
	}
	fmt.Fprintln(c.app.out, "Saved")
	return subcommands.ExitSuccess
}

type closeCmd struct{ app *App }

func (*closeCmd) Name() string           { return "close" }
func (*closeCmd) Synopsis() string       { return "save and close the open save" }
func (*closeCmd) Usage() string          { return "close\n" }
func (*closeCmd) SetFlags(*flag.FlagSet) {}

func (c *closeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if err := c.app.session.CloseSave(ctx); err != nil {
		return c.app.report(ctx, err)
	}
	fmt.Fprintln(c.app.out, "Closed")
	return subcommands.ExitSuccess
}

type listSavesCmd struct{ app *App }

func (*listSavesCmd) Name() string           { return "saves" }
func (*listSavesCmd) Synopsis() string       { return "list the saves on disk" }
func (*listSavesCmd) Usage() string          { return "saves\n" }
func (*listSavesCmd) SetFlags(*flag.FlagSet) {}

func (c *listSavesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	list, err := c.app.session.ListSaves(ctx)
	if err != nil {
		return c.app.report(ctx, err)
	}
	if len(list) == 0 {
		fmt.Fprintln(c.app.out, "No saves yet; create one with 'new'")
		return subcommands.ExitSuccess
	}

	tw := tabwriter.NewWriter(c.app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDESCRIPTION\tCREATED\tLAST OPENED")
	for _, m := range list {
		desc, _, _ := strings.Cut(m.Description, "\n")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			m.Name, desc, m.CreatedAt.Format("2006-01-02 15:04"), humanize.Time(m.LastOpenedAt))
	}
	_ = tw.Flush()
	return subcommands.ExitSuccess
}

type renameCmd struct{ app *App }

func (*renameCmd) Name() string           { return "rename" }
func (*renameCmd) Synopsis() string       { return "rename a closed save" }
func (*renameCmd) Usage() string          { return "rename <name> <new name>\n" }
func (*renameCmd) SetFlags(*flag.FlagSet) {}

func (c *renameCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.app.report(ctx, c.run(ctx, f))
}

func (c *renameCmd) run(ctx context.Context, f *flag.FlagSet) error {
	if f.NArg() != 2 {
		return badInput(errors.New("expected the current and the new save name"))
	}
	pw, err := c.app.password(ctx, "Password")
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	if err := c.app.session.RenameSave(ctx, f.Arg(0), f.Arg(1), string(pw)); err != nil {
		return err
	}
	fmt.Fprintf(c.app.out, "Renamed %q to %q\n", f.Arg(0), f.Arg(1))
	return nil
}

type describeCmd struct{ app *App }

func (*describeCmd) Name() string           { return "describe" }
func (*describeCmd) Synopsis() string       { return "change the description of a closed save" }
func (*describeCmd) Usage() string          { return "describe <name> <description>\n" }
func (*describeCmd) SetFlags(*flag.FlagSet) {}

func (c *describeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.app.report(ctx, c.run(ctx, f))
}

func (c *describeCmd) run(ctx context.Context, f *flag.FlagSet) error {
	if f.NArg() < 1 {
		return badInput(errors.New("expected a save name"))
	}
	description := strings.Join(f.Args()[1:], " ")

	pw, err := c.app.password(ctx, "Password")
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	if err := c.app.session.DescribeSave(ctx, f.Arg(0), description, string(pw)); err != nil {
		return err
	}
	fmt.Fprintln(c.app.out, "Description updated")
	return nil
}

type passwdCmd struct{ app *App }

func (*passwdCmd) Name() string           { return "passwd" }
func (*passwdCmd) Synopsis() string       { return "change the password of a closed save" }
func (*passwdCmd) Usage() string          { return "passwd <name>\n" }
func (*passwdCmd) SetFlags(*flag.FlagSet) {}

func (c *passwdCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.app.report(ctx, c.run(ctx, f))
}

func (c *passwdCmd) run(ctx context.Context, f *flag.FlagSet) error {
	name, err := oneArg(f, "save name")
	if err != nil {
		return err
	}
	old, err := c.app.password(ctx, "Current password")
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(old)

	pw, err := c.app.newPassword(ctx)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	if err := c.app.session.ChangePassword(ctx, name, string(old), string(pw)); err != nil {
		return err
	}
	fmt.Fprintln(c.app.out, "Password changed")
	return nil
}

type deleteCmd struct{ app *App }

func (*deleteCmd) Name() string           { return "delete" }
func (*deleteCmd) Synopsis() string       { return "permanently delete a closed save" }
func (*deleteCmd) Usage() string          { return "delete <name>\n" }
func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.app.report(ctx, c.run(ctx, f))
}

func (c *deleteCmd) run(ctx context.Context, f *flag.FlagSet) error {
	name, err := oneArg(f, "save name")
	if err != nil {
		return err
	}
	pw, err := c.app.password(ctx, "Password")
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	if err := c.app.session.DeleteSave(ctx, name, string(pw)); err != nil {
		return err
	}
	fmt.Fprintf(c.app.out, "Deleted save %q\n", name)
	return nil
}
