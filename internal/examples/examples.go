// Package examples lists sample questions that the schema can answer.
package examples

type Group struct {
	Name      string   `json:"name"`
	Questions []string `json:"questions"`
}

var catalogue = []Group{
	{
		Name: "Employee Queries",
		Questions: []string{
			"Show all employees in Engineering department",
			"Who earns more than 70000?",
			"List employees with their department names",
		},
	},
	{
		Name: "Order Queries",
		Questions: []string{
			"Show total orders by employee",
			"What are the top 5 largest orders?",
			"Show orders from last 30 days",
		},
	},
	{
		Name: "Product Queries",
		Questions: []string{
			"List all products sorted by price",
			"Show products under $100",
			"What is the average product price?",
		},
	},
	{
		Name: "Complex Queries",
		Questions: []string{
			"Show employees who handled orders over $5000",
			"Which department has the highest average salary?",
			"Show customer orders with employee details",
		},
	},
}

// All returns a copy of the catalogue in display order.
func All() []Group {
	out := make([]Group, len(catalogue))
	for i, g := range catalogue {
		out[i] = Group{Name: g.Name, Questions: append([]string(nil), g.Questions...)}
	}
	return out
}

// Placeholder is the hint shown in empty question prompts.
const Placeholder = "e.g., Show all employees in the Engineering department"
