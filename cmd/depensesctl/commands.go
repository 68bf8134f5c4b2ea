package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"depenses/internal/cli"
	"depenses/internal/core"
	"depenses/internal/lock"
	"depenses/internal/services"
)

// opener returns an environment on the configured store.
type opener func(ctx context.Context) (*cli.Env, error)

func openFromConfig(ctx context.Context) (*cli.Env, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	return cli.Open(ctx, cfg, cli.SetupLogger(cfg))
}

// Commands lists every depensesctl subcommand.
func Commands(open opener, out io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&showCmd{open: open, out: out},
		&addCmd{open: open, out: out},
		&resetCmd{open: open, out: out},
		&exportCmd{open: open, out: out},
		&importCmd{open: open, out: out},
	}
}

// writerNote ends the Usage of every command that writes the store.
const writerNote = `
  Refuses to run while a depenses server uses the same store: the server
  keeps the ledger in memory and would overwrite the change. Stop it first,
  or send the change through its /api endpoints.
`

// openWriter opens the store and takes the writer lock.
func openWriter(ctx context.Context, open opener) (*cli.Env, error) {
	env, err := open(ctx)
	if err != nil {
		return nil, err
	}
	if err := env.LockWriter(); err != nil {
		env.Close()
		if errors.Is(err, lock.ErrLocked) {
			return nil, fmt.Errorf("%w; stop the depenses server or use its /api endpoints", err)
		}
		return nil, err
	}
	return env, nil
}

// loaded opens the store and loads the ledger, taking the writer lock
// first when write is set. A corrupt document is an error here: the CLI
// never acts on a ledger it could not read.
func loaded(ctx context.Context, open opener, write bool) (*cli.Env, error) {
	var (
		env *cli.Env
		err error
	)
	if write {
		env, err = openWriter(ctx, open)
	} else {
		env, err = open(ctx)
	}
	if err != nil {
		return nil, err
	}
	if _, err := env.Ledger.Load(ctx); err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

func printView(w io.Writer, v services.View) {
	for _, a := range v.Accounts() {
		fmt.Fprintf(w, "%-6s commune %12s €  personnelle %12s €\n", a.Name, a.Commune, a.Personnelle)
	}
	fmt.Fprintf(w, "Total commun %12s €\n", v.FormattedSharedTotal())
	fmt.Fprintf(w, "Équilibre    %12s €  %s\n", v.Amount(), v.Phrase())
	if !v.LastSaved.IsZero() {
		fmt.Fprintf(w, "Enregistré le %s\n", v.LastSaved.Local().Format("2006-01-02 15:04:05"))
	}
}

type showCmd struct {
	open opener
	out  io.Writer
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "print both accounts and who owes whom" }
func (*showCmd) Usage() string {
	return `depensesctl show

  Prints the commune and personnelle totals of each account, the shared
  total and the settlement. Fails if the stored document cannot be read.
`
}
func (*showCmd) SetFlags(*flag.FlagSet) {}

func (c *showCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, err := loaded(ctx, c.open, false)
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	printView(c.out, env.Ledger.View())
	return subcommands.ExitSuccess
}

type addCmd struct {
	open        opener
	out         io.Writer
	account     string
	commune     string
	personnelle string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add an expense to one account" }
func (*addCmd) Usage() string {
	return `depensesctl add -account <julie|paul> [-commune <amount>] [-personnelle <amount>]

  Adds non-negative amounts to an account and saves. Amounts accept a
  decimal comma, e.g. 12,50.
` + writerNote
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account to credit (julie or paul).")
	f.StringVar(&c.commune, "commune", "", "Shared expense amount.")
	f.StringVar(&c.personnelle, "personnelle", "", "Personal expense amount.")
}

func parseFlagAmount(name, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("-%s %q: %w", name, s, err)
	}
	return d, nil
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := core.ParseAccountID(c.account)
	if err != nil {
		return fail(fmt.Errorf("-account %q: %w", c.account, err))
	}
	commune, err := parseFlagAmount("commune", c.commune)
	if err != nil {
		return fail(err)
	}
	personnelle, err := parseFlagAmount("personnelle", c.personnelle)
	if err != nil {
		return fail(err)
	}

	env, err := loaded(ctx, c.open, true)
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	res, err := env.Ledger.AddExpense(ctx, id, commune, personnelle)
	if err != nil {
		return fail(err)
	}
	if res.SaveErr != nil {
		return fail(fmt.Errorf("expense added but not saved: %w", res.SaveErr))
	}
	printView(c.out, res.View)
	return subcommands.ExitSuccess
}

type resetCmd struct {
	open opener
	out  io.Writer
	yes  bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "zero every total" }
func (*resetCmd) Usage() string {
	return `depensesctl reset -yes

  Sets all four totals to zero and saves. Requires -yes.
` + writerNote
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm the reset.")
}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		return fail(fmt.Errorf("%w: pass -yes", services.ErrResetNotConfirmed))
	}
	env, err := openWriter(ctx, c.open)
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	// A reset replaces whatever is stored, readable or not.
	if _, err := env.Ledger.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "previous ledger unreadable: %v\n", err)
	}
	res, err := env.Ledger.Reset(ctx, true)
	if err != nil {
		return fail(err)
	}
	if res.SaveErr != nil {
		return fail(res.SaveErr)
	}
	printView(c.out, res.View)
	return subcommands.ExitSuccess
}

type exportCmd struct {
	open opener
	out  io.Writer
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the stored document to stdout" }
func (*exportCmd) Usage() string {
	return `depensesctl export > backup.json

  Writes the stored document byte for byte, legacy or current.
`
}
func (*exportCmd) SetFlags(*flag.FlagSet) {}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, err := c.open(ctx)
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	raw, err := env.Adapter.Export(ctx)
	if err != nil {
		return fail(err)
	}
	if raw == nil {
		return fail(errors.New("nothing stored under " + env.Adapter.Key()))
	}
	if _, err := c.out.Write(append(raw, '\n')); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	open opener
	out  io.Writer
	file string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the stored document" }
func (*importCmd) Usage() string {
	return `depensesctl import -file <path|->

  Reads a legacy or current document, checks it and stores it in the
  current shape.
` + writerNote
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "Document to import, - for stdin.")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		return fail(errors.New("-file is required"))
	}
	var (
		raw []byte
		err error
	)
	if c.file == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(c.file)
	}
	if err != nil {
		return fail(err)
	}

	env, err := openWriter(ctx, c.open)
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	origin, err := env.Adapter.Import(ctx, raw)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.out, "imported %s document into %s\n", origin, env.Adapter.Key())
	return subcommands.ExitSuccess
}
