package seed

import (
	"math"
	"math/rand/v2"
	"time"

	"nl-sql-search/internal/models"
)

// Dataset is the full sample population written by Populate.
type Dataset struct {
	Departments []models.Department
	Employees   []models.Employee
	Products    []models.Product
	Orders      []models.Order
}

var departments = []models.Department{
	{Name: "Engineering"},
	{Name: "Sales"},
	{Name: "HR"},
	{Name: "Marketing"},
	{Name: "Finance"},
}

var employees = []models.Employee{
	{Name: "John Doe", DepartmentID: 1, Email: "john.doe@company.com", Salary: 75000},
	{Name: "Jane Smith", DepartmentID: 1, Email: "jane.smith@company.com", Salary: 82000},
	{Name: "Mike Johnson", DepartmentID: 2, Email: "mike.johnson@company.com", Salary: 65000},
	{Name: "Sarah Williams", DepartmentID: 2, Email: "sarah.williams@company.com", Salary: 68000},
	{Name: "Tom Brown", DepartmentID: 3, Email: "tom.brown@company.com", Salary: 60000},
	{Name: "Emily Davis", DepartmentID: 4, Email: "emily.davis@company.com", Salary: 62000},
	{Name: "David Wilson", DepartmentID: 5, Email: "david.wilson@company.com", Salary: 70000},
	{Name: "Lisa Anderson", DepartmentID: 1, Email: "lisa.anderson@company.com", Salary: 90000},
	{Name: "Robert Taylor", DepartmentID: 2, Email: "robert.taylor@company.com", Salary: 72000},
	{Name: "Jennifer Martinez", DepartmentID: 4, Email: "jennifer.martinez@company.com", Salary: 66000},
}

var productNames = []string{
	"Laptop",
	"Wireless Mouse",
	"Mechanical Keyboard",
	"USB-C Hub",
	"Monitor",
	"Webcam",
	"Headphones",
	"Desk Lamp",
	"Office Chair",
	"Standing Desk",
}

var customerNames = []string{
	"Acme Corporation",
	"Tech Solutions Inc",
	"Global Industries",
	"Innovative Systems",
	"Digital Dynamics",
	"Future Technologies",
	"Smart Solutions",
	"Creative Designs",
	"Enterprise Solutions",
	"Modern Business Co",
}

const (
	minProductPrice = 29.99
	maxProductPrice = 999.99
	minOrderTotal   = 500.0
	maxOrderTotal   = 10000.0
	minOrders       = 2
	maxOrders       = 5
	orderWindowDays = 180
)

// SampleData builds the sample population. Prices, order counts, totals
// and dates are drawn from rng; order dates fall within the
// orderWindowDays days before now.
func SampleData(rng *rand.Rand, now time.Time) Dataset {
	ds := Dataset{
		Departments: append([]models.Department(nil), departments...),
		Employees:   append([]models.Employee(nil), employees...),
	}

	for _, name := range productNames {
		ds.Products = append(ds.Products, models.Product{
			Name:  name,
			Price: uniform(rng, minProductPrice, maxProductPrice),
		})
	}

	base := truncateToDay(now).AddDate(0, 0, -orderWindowDays)
	for _, customer := range customerNames {
		n := minOrders + rng.IntN(maxOrders-minOrders+1)
		for range n {
			ds.Orders = append(ds.Orders, models.Order{
				CustomerName: customer,
				EmployeeID:   1 + rng.IntN(len(employees)),
				OrderTotal:   uniform(rng, minOrderTotal, maxOrderTotal),
				OrderDate:    base.AddDate(0, 0, rng.IntN(orderWindowDays+1)),
			})
		}
	}

	return ds
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return round2(lo + rng.Float64()*(hi-lo))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
