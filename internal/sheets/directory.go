package sheets

import (
	"time"

	"github.com/tmater/waitlist/internal/daterange"
)

// Directory sheet layout, by column index.
const (
	colUnit = iota
	colName
	colEmail
	colPhone
	colLeaseEnd
)

// Tenant is one row of the tenant directory.
type Tenant struct {
	Unit     string `json:"unit"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LeaseEnd string `json:"lease_end,omitempty"` // YYYY-MM-DD when parseable, else as shown
}

// Directory extracts tenants from a directory table. Rows without a name
// are skipped.
func Directory(t *Table) []Tenant {
	tenants := make([]Tenant, 0, len(t.Rows))
	for _, r := range t.Rows {
		name := r.Cell(colName).Text()
		if name == "" {
			continue
		}
		tenants = append(tenants, Tenant{
			Unit:     r.Cell(colUnit).Text(),
			Name:     name,
			Email:    r.Cell(colEmail).Text(),
			Phone:    r.Cell(colPhone).Text(),
			LeaseEnd: leaseEnd(r.Cell(colLeaseEnd)),
		})
	}
	return tenants
}

func leaseEnd(c *Cell) string {
	if d, ok := daterange.Parse(c.Raw(), time.UTC); ok {
		return d.Format("2006-01-02")
	}
	return c.Text()
}
