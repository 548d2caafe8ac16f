package controller

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"tally/a1"
	"tally/grid"
)

// ImportPostgres runs a query against a Postgres database and
// installs the result as a data table anchored at sp. The fetch
// happens before the transaction starts so a connection failure never
// leaves a half-applied transaction.
func (c *GridController) ImportPostgres(ctx context.Context, sp a1.SheetPos, dsn, query, name string) (*TransactionSummary, error) {
	values, err := fetchQueryTable(ctx, "pgx", dsn, query)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "Import"
	}
	summary := c.StartUserTransaction([]Operation{ImportTable{
		SheetPos: sp,
		Name:     name,
		Values:   values,
	}}, "")
	return summary, nil
}

// fetchQueryTable materializes a SQL result set: one header row of
// column names, then the data rows converted to cell values.
func fetchQueryTable(ctx context.Context, driver, dsn, query string) ([][]grid.CellValue, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	header := make([]grid.CellValue, len(columns))
	for i, name := range columns {
		header[i] = &grid.Text{Value: name}
	}
	out := [][]grid.CellValue{header}

	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make([]grid.CellValue, len(columns))
		for i, v := range raw {
			row[i] = sqlCellValue(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func sqlCellValue(raw any) grid.CellValue {
	switch v := raw.(type) {
	case nil:
		return grid.BlankValue
	case bool:
		return &grid.Logical{Value: v}
	case int64:
		return grid.NumberFromInt(v)
	case float64:
		return grid.NumberFromFloat(v)
	case string:
		return &grid.Text{Value: v}
	case []byte:
		return &grid.Text{Value: string(v)}
	case time.Time:
		return &grid.DateTime{Value: v}
	case decimal.Decimal:
		return grid.NewNumber(v)
	default:
		return &grid.Text{Value: fmt.Sprintf("%v", v)}
	}
}
