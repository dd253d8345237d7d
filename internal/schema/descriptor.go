// Package schema holds the fixed description of the company database that
// is embedded in every SQL generation prompt.
package schema

import (
	"fmt"
	"strings"
)

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Relationship is a foreign key From -> To, both as table.column.
type Relationship struct {
	From string `json:"from"`
	To   string `json:"to"`
}

var Tables = []Table{
	{
		Name: "departments",
		Columns: []Column{
			{Name: "id", Type: "SERIAL PRIMARY KEY"},
			{Name: "name", Type: "VARCHAR(100)"},
		},
	},
	{
		Name: "employees",
		Columns: []Column{
			{Name: "id", Type: "SERIAL PRIMARY KEY"},
			{Name: "name", Type: "VARCHAR(100)"},
			{Name: "department_id", Type: "INT"},
			{Name: "email", Type: "VARCHAR(255)"},
			{Name: "salary", Type: "DECIMAL(10,2)"},
		},
	},
	{
		Name: "products",
		Columns: []Column{
			{Name: "id", Type: "SERIAL PRIMARY KEY"},
			{Name: "name", Type: "VARCHAR(100)"},
			{Name: "price", Type: "DECIMAL(10,2)"},
		},
	},
	{
		Name: "orders",
		Columns: []Column{
			{Name: "id", Type: "SERIAL PRIMARY KEY"},
			{Name: "customer_name", Type: "VARCHAR(100)"},
			{Name: "employee_id", Type: "INT"},
			{Name: "order_total", Type: "DECIMAL(10,2)"},
			{Name: "order_date", Type: "DATE"},
		},
	},
}

var Relationships = []Relationship{
	{From: "employees.department_id", To: "departments.id"},
	{From: "orders.employee_id", To: "employees.id"},
}

var descriptor = render(Tables, Relationships)

// Describe returns the schema text used in prompts. It never changes for
// the life of the process.
func Describe() string {
	return descriptor
}

func render(tables []Table, rels []Relationship) string {
	var b strings.Builder
	b.WriteString("Database Schema:\n")
	for i, t := range tables {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, t.Name)
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "   - %s (%s)\n", c.Name, c.Type)
		}
	}
	b.WriteString("\nRelationships:\n")
	for _, r := range rels {
		fmt.Fprintf(&b, "- %s → %s\n", r.From, r.To)
	}
	return b.String()
}
