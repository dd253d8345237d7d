// internal/models/company.go
package models

import "time"

// The company schema the generated queries run against. The search
// pipeline never reads these types; the seeder writes them.

type Department struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Employee struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	DepartmentID int     `json:"departmentId"`
	Email        string  `json:"email"`
	Salary       float64 `json:"salary"`
}

type Product struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Order struct {
	ID           int       `json:"id"`
	CustomerName string    `json:"customerName"`
	EmployeeID   int       `json:"employeeId"`
	OrderTotal   float64   `json:"orderTotal"`
	OrderDate    time.Time `json:"orderDate"`
}
