package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	insertDepartment = "INSERT INTO departments (name) VALUES ($1)"
	insertEmployee   = "INSERT INTO employees (name, department_id, email, salary) VALUES ($1, $2, $3, $4)"
	insertProduct    = "INSERT INTO products (name, price) VALUES ($1, $2)"
	insertOrder      = "INSERT INTO orders (customer_name, employee_id, order_total, order_date) VALUES ($1, $2, $3, $4)"
)

// Conn is the subset of *pgx.Conn used for population.
type Conn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Populate writes ds in one transaction. It does nothing and returns false
// when the departments table already has rows.
func Populate(ctx context.Context, conn Conn, ds Dataset) (bool, error) {
	var count int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM departments").Scan(&count); err != nil {
		return false, fmt.Errorf("count departments: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		return sendBatch(ctx, tx, buildBatch(ds))
	})
	if err != nil {
		return false, fmt.Errorf("populate sample data: %w", err)
	}
	return true, nil
}

// buildBatch queues inserts in dependency order so that the serial ids of
// departments and employees line up with the references in ds.
func buildBatch(ds Dataset) *pgx.Batch {
	b := &pgx.Batch{}
	for _, d := range ds.Departments {
		b.Queue(insertDepartment, d.Name)
	}
	for _, e := range ds.Employees {
		b.Queue(insertEmployee, e.Name, e.DepartmentID, e.Email, e.Salary)
	}
	for _, p := range ds.Products {
		b.Queue(insertProduct, p.Name, p.Price)
	}
	for _, o := range ds.Orders {
		b.Queue(insertOrder, o.CustomerName, o.EmployeeID, o.OrderTotal, o.OrderDate)
	}
	return b
}

func sendBatch(ctx context.Context, tx pgx.Tx, b *pgx.Batch) error {
	br := tx.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	return br.Close()
}
