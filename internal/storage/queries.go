package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// WithTx binds the queries to a transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// TransactionRow mirrors one row of the transactions table.
type TransactionRow struct {
	ID          int64
	Type        string
	Amount      float64
	Category    string
	Description string
	Date        string
}

type CreateTransactionParams struct {
	Type        string
	Amount      float64
	Category    string
	Description string
	Date        string
}

type UpdateTransactionParams struct {
	ID          int64
	Type        string
	Amount      float64
	Category    string
	Description string
}

// Older ledgers created the table without NOT NULL constraints, hence COALESCE.
const selectColumns = `id, COALESCE(type, ''), COALESCE(amount, 0), COALESCE(category, ''), COALESCE(description, ''), COALESCE(date, '')`

const createTransaction = `INSERT INTO transactions (type, amount, category, description, date) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createTransaction,
		arg.Type,
		arg.Amount,
		arg.Category,
		arg.Description,
		arg.Date,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const updateTransaction = `UPDATE transactions SET type = ?, amount = ?, category = ?, description = ? WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Type,
		arg.Amount,
		arg.Category,
		arg.Description,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const sumByType = `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = ?`

func (q *Queries) SumByType(ctx context.Context, kind string) (float64, error) {
	var total float64
	err := q.db.QueryRowContext(ctx, sumByType, kind).Scan(&total)
	return total, err
}

const getTransaction = `SELECT ` + selectColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	var row TransactionRow
	err := q.db.QueryRowContext(ctx, getTransaction, id).Scan(
		&row.ID,
		&row.Type,
		&row.Amount,
		&row.Category,
		&row.Description,
		&row.Date,
	)
	return row, err
}

const listTransactions = `SELECT ` + selectColumns + ` FROM transactions ORDER BY id DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var row TransactionRow
		if err := rows.Scan(
			&row.ID,
			&row.Type,
			&row.Amount,
			&row.Category,
			&row.Description,
			&row.Date,
		); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&n)
	return n, err
}
