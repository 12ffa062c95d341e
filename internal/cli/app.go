package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger"
	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
	"github.com/dmitrijs2005/ledgerkeeper/internal/session"
	"github.com/google/subcommands"
)

// App is the interactive shell around one session.
type App struct {
	session *session.Session
	ledger  *ledger.Service
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	quit    bool
}

func NewApp(sess *session.Session, log logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		session: sess,
		ledger:  ledger.NewService(sess),
		log:     log,
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

// Run reads and executes commands until "exit", end of input or ctx is done.
// It does not close the open save; the caller shuts the session down.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.out, "Welcome to ledgerkeeper (type 'help' for commands)")

	for !a.quit {
		fmt.Fprintf(a.out, "%s> ", a.prompt())

		line, err := await(ctx, func() (string, error) { return readLine(a.reader) })
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.out)
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(a.out)
				return nil
			}
			return err
		}

		a.Exec(ctx, line)
	}
	return nil
}

// Exec runs a single command line.
func (a *App) Exec(ctx context.Context, line string) subcommands.ExitStatus {
	args, err := splitArgs(line)
	if err != nil {
		return a.report(ctx, badInput(err))
	}
	if len(args) == 0 {
		return subcommands.ExitSuccess
	}

	top := flag.NewFlagSet("ledger", flag.ContinueOnError)
	top.SetOutput(a.out)
	cdr := subcommands.NewCommander(top, "ledger")
	cdr.Output = a.out
	cdr.Error = a.out

	cdr.Register(cdr.HelpCommand(), "")
	for _, g := range a.commands() {
		for _, c := range g.cmds {
			cdr.Register(c, g.name)
		}
	}

	if err := top.Parse(args); err != nil {
		return subcommands.ExitUsageError
	}
	return cdr.Execute(ctx)
}

type commandGroup struct {
	name string
	cmds []subcommands.Command
}

func (a *App) commands() []commandGroup {
	return []commandGroup{
		{name: "saves", cmds: []subcommands.Command{
			&newCmd{app: a},
			&openCmd{app: a},
			&saveCmd{app: a},
			&closeCmd{app: a},
			&listSavesCmd{app: a},
			&renameCmd{app: a},
			&describeCmd{app: a},
			&passwdCmd{app: a},
			&deleteCmd{app: a},
		}},
		{name: "ledger", cmds: []subcommands.Command{
			&accountCmd{app: a},
			&accountsCmd{app: a},
			&categoryCmd{app: a},
			&categoriesCmd{app: a},
			&txCmd{app: a},
			&txsCmd{app: a},
			&balanceCmd{app: a},
		}},
		{name: "shell", cmds: []subcommands.Command{
			&exitCmd{app: a},
			subcommands.Alias("quit", &exitCmd{app: a}),
		}},
	}
}

func (a *App) prompt() string {
	if meta, ok := a.session.Current(); ok {
		return fmt.Sprintf("ledger (%s)", meta.Name)
	}
	return "ledger"
}

// report turns a command result into an exit status, telling the user about
// expected errors and force closing the save on unexpected ones.
func (a *App) report(ctx context.Context, err error) subcommands.ExitStatus {
	if err == nil {
		return subcommands.ExitSuccess
	}

	// Interrupted by shutdown: the caller closes the session properly.
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return subcommands.ExitFailure
	}

	class, msg := classify(err)
	if class == Expected {
		fmt.Fprintln(a.out, "error:", msg)
		var ie inputError
		if errors.As(err, &ie) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}

	a.log.Error(ctx, "command failed", "error", err)
	_, wasOpen := a.session.Current()
	a.session.ForceClose(ctx)
	if wasOpen {
		fmt.Fprintf(a.out, "error: %s; the open save was closed without saving\n", msg)
	} else {
		fmt.Fprintln(a.out, "error:", msg)
	}
	return subcommands.ExitFailure
}

func (a *App) password(ctx context.Context, prompt string) ([]byte, error) {
	return await(ctx, func() ([]byte, error) { return GetPassword(a.reader, prompt, a.out) })
}

func (a *App) newPassword(ctx context.Context) ([]byte, error) {
	return await(ctx, func() ([]byte, error) { return GetNewPassword(a.reader, a.out) })
}

type exitCmd struct{ app *App }

func (*exitCmd) Name() string           { return "exit" }
func (*exitCmd) Synopsis() string       { return "close the open save and leave" }
func (*exitCmd) Usage() string          { return "exit\n" }
func (*exitCmd) SetFlags(*flag.FlagSet) {}
func (c *exitCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	c.app.quit = true
	return subcommands.ExitSuccess
}
