package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	grpc_adapter "github.com/JoeShih716/go-finance-ledger/internal/app/ledger/adapter/in/grpc"
	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/domain"
	"github.com/JoeShih716/go-finance-ledger/internal/app/ledger/usecase"
	rpc "github.com/JoeShih716/go-finance-ledger/pkg/grpc"
)

const usage = `usage: ledgerctl [-addr host:port] [-token sess_...] <command>

commands:
  accounts                   list accounts
  transactions [accountID]   list transactions, optionally for one account
  scenario                   create an account and run create/delete/update transactions against it
`

func main() {
	addr := flag.String("addr", "localhost:50051", "ledger gRPC address")
	token := flag.String("token", os.Getenv("LEDGER_TOKEN"), "session token (default $LEDGER_TOKEN)")
	timeout := flag.Duration("timeout", 10*time.Second, "deadline for the whole command")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *token == "" {
		log.Fatal("missing session token: pass -token or set LEDGER_TOKEN")
	}

	pool := rpc.NewPool(rpc.WithBearerToken(*token))
	defer pool.Close()
	conn, err := pool.GetConnection(*addr)
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	c := grpc_adapter.NewLedgerServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch flag.Arg(0) {
	case "accounts":
		err = listAccounts(ctx, c)
	case "transactions":
		err = listTransactions(ctx, c, flag.Arg(1))
	case "scenario":
		err = runScenario(ctx, c)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// check 將 soft failure 轉成 error
func check(step string, reply grpc_adapter.Reply) error {
	if reply.Success {
		return nil
	}
	if reply.Details != "" {
		return fmt.Errorf("%s: %s (%s)", step, reply.Message, reply.Details)
	}
	return fmt.Errorf("%s: %s", step, reply.Message)
}

func listAccounts(ctx context.Context, c *grpc_adapter.LedgerServiceClient) error {
	reply, err := c.ListAccounts(ctx, &grpc_adapter.ListAccountsRequest{})
	if err != nil {
		return err
	}
	if err := check("list accounts", reply.Reply); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tBANK\tBALANCE")
	for _, a := range reply.Accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Type, a.Bank, a.Balance.StringFixed(2))
	}
	return w.Flush()
}

func listTransactions(ctx context.Context, c *grpc_adapter.LedgerServiceClient, accountID string) error {
	reply, err := c.ListTransactions(ctx, &grpc_adapter.ListTransactionsRequest{AccountID: accountID})
	if err != nil {
		return err
	}
	if err := check("list transactions", reply.Reply); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tID\tACCOUNT\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, t := range reply.Transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Date.Format("2006-01-02"), t.ID, t.AccountID, t.Type, t.Category, t.Amount.StringFixed(2), t.Description)
	}
	return w.Flush()
}

// runScenario 建立帳戶後依序新增、刪除、修改交易，每一步都核對餘額
func runScenario(ctx context.Context, c *grpc_adapter.LedgerServiceClient) error {
	created, err := c.CreateAccount(ctx, &usecase.AccountInput{
		Name:    "Main",
		Type:    domain.AccountTypeChecking,
		Balance: decimal.NewFromInt(100),
	})
	if err != nil {
		return err
	}
	if err := check("create account", created.Reply); err != nil {
		return err
	}
	accountID := created.Account.ID
	if err := expectBalance(ctx, c, accountID, 100); err != nil {
		return err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	post := func(typ domain.TransactionType, amount int64, description string, category domain.Category) (*domain.Transaction, error) {
		reply, err := c.CreateTransaction(ctx, &usecase.TransactionInput{
			AccountID: accountID,
			TransactionFields: domain.TransactionFields{
				Amount:      decimal.NewFromInt(amount),
				Description: description,
				Category:    category,
				Type:        typ,
				Date:        today,
			},
		})
		if err != nil {
			return nil, err
		}
		return reply.Transaction, check("create transaction", reply.Reply)
	}

	expense, err := post(domain.TransactionTypeExpense, 30, "groceries", domain.CategoryFood)
	if err != nil {
		return err
	}
	if err := expectBalance(ctx, c, accountID, 70); err != nil {
		return err
	}
	income, err := post(domain.TransactionTypeIncome, 50, "refund", domain.CategoryOther)
	if err != nil {
		return err
	}
	if err := expectBalance(ctx, c, accountID, 120); err != nil {
		return err
	}

	deleted, err := c.DeleteTransaction(ctx, &grpc_adapter.IDRequest{ID: expense.ID})
	if err != nil {
		return err
	}
	if err := check("delete transaction", *deleted); err != nil {
		return err
	}
	if err := expectBalance(ctx, c, accountID, 150); err != nil {
		return err
	}

	updated, err := c.UpdateTransaction(ctx, &usecase.TransactionUpdate{
		ID: income.ID,
		TransactionFields: domain.TransactionFields{
			Amount:      decimal.NewFromInt(20),
			Description: income.Description,
			Category:    income.Category,
			Type:        income.Type,
			Date:        income.Date,
		},
	})
	if err != nil {
		return err
	}
	if err := check("update transaction", updated.Reply); err != nil {
		return err
	}
	if err := expectBalance(ctx, c, accountID, 120); err != nil {
		return err
	}

	fmt.Printf("scenario passed on account %s\n", accountID)
	return nil
}

func expectBalance(ctx context.Context, c *grpc_adapter.LedgerServiceClient, accountID string, want int64) error {
	reply, err := c.ListAccounts(ctx, &grpc_adapter.ListAccountsRequest{})
	if err != nil {
		return err
	}
	if err := check("list accounts", reply.Reply); err != nil {
		return err
	}
	for _, a := range reply.Accounts {
		if a.ID != accountID {
			continue
		}
		if !a.Balance.Equal(decimal.NewFromInt(want)) {
			return fmt.Errorf("account %s: want balance %d, got %s", accountID, want, a.Balance)
		}
		fmt.Printf("balance %s ok\n", a.Balance.StringFixed(2))
		return nil
	}
	return fmt.Errorf("account %s not listed", accountID)
}
