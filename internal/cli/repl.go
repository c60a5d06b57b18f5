package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"finchat/internal/chat"
	"finchat/internal/core"
	"finchat/internal/ledger"
)

const replHelp = "Commands: :summary  :list  :insights  :help  :quit"

// ChatRouter answers one chat message.
type ChatRouter interface {
	Handle(ctx context.Context, message string) chat.Reply
}

// REPL is the terminal chat loop.
type REPL struct {
	router   ChatRouter
	ledger   ledger.Reader
	currency string
	out      io.Writer

	prompt  *color.Color
	title   *color.Color
	muted   *color.Color
	palette map[chat.Kind]*color.Color
}

func NewREPL(router ChatRouter, reader ledger.Reader, currency string, out io.Writer) *REPL {
	return &REPL{
		router:   router,
		ledger:   reader,
		currency: currency,
		out:      out,
		prompt:   color.New(color.FgCyan, color.Bold),
		title:    color.New(color.Bold, color.Underline),
		muted:    color.New(color.Faint),
		palette: map[chat.Kind]*color.Color{
			chat.KindSuccess: color.New(color.FgGreen),
			chat.KindExpense: color.New(color.FgYellow),
			chat.KindInfo:    color.New(color.FgBlue),
			chat.KindWarning: color.New(color.FgYellow, color.Bold),
			chat.KindAdvice:  color.New(color.FgMagenta),
			chat.KindAnswer:  color.New(color.Reset),
			chat.KindError:   color.New(color.FgRed, color.Bold),
		},
	}
}

// Run reads lines from in until EOF, :quit or ctx is cancelled.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	r.muted.Fprintln(r.out, replHelp)
	sc := bufio.NewScanner(in)
	for {
		r.prompt.Fprint(r.out, "you> ")
		if !sc.Scan() {
			fmt.Fprintln(r.out)
			return sc.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case ":quit", ":q", ":exit":
			return nil
		case ":help":
			r.muted.Fprintln(r.out, replHelp)
		case ":summary":
			r.summary(ctx)
		case ":list":
			r.list(ctx)
		case ":insights":
			r.insights(ctx)
		default:
			r.printReply(r.router.Handle(ctx, line))
		}
	}
}

func (r *REPL) printReply(reply chat.Reply) {
	c, ok := r.palette[reply.Kind]
	if !ok {
		c = r.palette[chat.KindAnswer]
	}
	if reply.Title != "" {
		r.title.Fprintln(r.out, reply.Title)
	}
	c.Fprintln(r.out, reply.Text)
	if reply.Classified {
		r.muted.Fprintf(r.out, "(%s · %.2f)\n", reply.Intent, reply.Score)
	}
}

func (r *REPL) fail(what string, err error) {
	r.palette[chat.KindError].Fprintf(r.out, "Could not load %s: %v\n", what, err)
}

func (r *REPL) summary(ctx context.Context) {
	s, err := r.ledger.Summary(ctx)
	if err != nil {
		r.fail("summary", err)
		return
	}
	r.palette[chat.KindInfo].Fprintf(r.out, "Income: %s\nExpenses: %s\nRemaining: %s\n",
		core.FormatAmount(r.currency, s.Income),
		core.FormatAmount(r.currency, s.Expenses),
		core.FormatAmount(r.currency, s.Net))
}

func (r *REPL) list(ctx context.Context) {
	txns, err := r.ledger.ListAll(ctx)
	if err != nil {
		r.fail("transactions", err)
		return
	}
	if len(txns) == 0 {
		r.muted.Fprintln(r.out, "No transactions yet.")
		return
	}
	for _, t := range txns {
		c := r.palette[chat.KindSuccess]
		if t.Kind == core.Expense {
			c = r.palette[chat.KindExpense]
		}
		c.Fprintf(r.out, "#%-4d %s  %-7s %12s  %-12s %s\n",
			t.ID, t.Date, t.Kind, core.FormatAmount(r.currency, t.Amount), t.Category, t.Description)
	}
}

func (r *REPL) insights(ctx context.Context) {
	s, err := r.ledger.Summary(ctx)
	if err != nil {
		r.fail("insights", err)
		return
	}
	txns, err := r.ledger.ListAll(ctx)
	if err != nil {
		r.fail("insights", err)
		return
	}

	info := r.palette[chat.KindInfo]
	if s.Income <= 0 {
		r.palette[chat.KindWarning].Fprintln(r.out, "No income recorded yet. Add income to see meaningful ratios.")
	}
	info.Fprintf(r.out, "Savings rate: %.1f%%\nExpense ratio: %.1f%%\nNet: %s\n",
		s.SavingsRate(), s.ExpenseRatio(), core.FormatAmount(r.currency, s.Net))
	for i, ct := range core.TopExpenseCategories(txns, 3) {
		info.Fprintf(r.out, "%d. %s: %s\n", i+1, ct.Category, core.FormatAmount(r.currency, ct.Total))
	}
}
