package docset

import (
	"fmt"
	"regexp"

	"invoicedesk/internal/model"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate runs post-merge consistency checks and returns human-readable
// warnings. Warnings are advisory: callers display them and proceed with
// whatever data is present.
func Validate(ds *model.Dataset) []string {
	warnings := make([]string, 0)
	if ds == nil {
		return warnings
	}

	for _, p := range ds.Products {
		if p.Name == "" {
			warnings = append(warnings, fmt.Sprintf("product %s: missing name", p.ID))
		}
		if p.Quantity < 0 {
			warnings = append(warnings, fmt.Sprintf("product %s (%s): negative quantity", p.ID, p.Name))
		}
		if p.UnitPrice < 0 {
			warnings = append(warnings, fmt.Sprintf("product %s (%s): negative unit price", p.ID, p.Name))
		}
		if p.Tax < 0 {
			warnings = append(warnings, fmt.Sprintf("product %s (%s): negative tax", p.ID, p.Name))
		}
		if p.PriceWithTax < 0 {
			warnings = append(warnings, fmt.Sprintf("product %s (%s): negative price with tax", p.ID, p.Name))
		}
		if p.Discount < 0 {
			warnings = append(warnings, fmt.Sprintf("product %s (%s): negative discount", p.ID, p.Name))
		}
	}

	for _, c := range ds.Customers {
		if c.Name == "" {
			warnings = append(warnings, fmt.Sprintf("customer %s: missing name", c.ID))
		}
		if c.PhoneNumber == "" || c.PhoneNumber == "N/A" {
			warnings = append(warnings, fmt.Sprintf("customer %s (%s): missing phone number", c.ID, c.Name))
		}
		if c.Email == "" {
			warnings = append(warnings, fmt.Sprintf("customer %s (%s): missing email", c.ID, c.Name))
		} else if !emailPattern.MatchString(c.Email) {
			warnings = append(warnings, fmt.Sprintf("customer %s (%s): invalid email %q", c.ID, c.Name, c.Email))
		}
		if c.Address == "" {
			warnings = append(warnings, fmt.Sprintf("customer %s (%s): missing address", c.ID, c.Name))
		}
		if c.TotalPurchaseAmount < 0 {
			warnings = append(warnings, fmt.Sprintf("customer %s (%s): negative purchase total", c.ID, c.Name))
		}
	}

	for _, inv := range ds.Invoices {
		if inv.SerialNumber == "" {
			warnings = append(warnings, fmt.Sprintf("invoice %s: missing serial number", inv.ID))
		}
		if inv.Quantity <= 0 {
			warnings = append(warnings, fmt.Sprintf("invoice %s (%s): quantity must be positive", inv.ID, inv.SerialNumber))
		}
		if inv.Tax < 0 {
			warnings = append(warnings, fmt.Sprintf("invoice %s (%s): negative tax", inv.ID, inv.SerialNumber))
		}
		if inv.TotalAmount < 0 {
			warnings = append(warnings, fmt.Sprintf("invoice %s (%s): negative total amount", inv.ID, inv.SerialNumber))
		}
		if inv.Date == "" {
			warnings = append(warnings, fmt.Sprintf("invoice %s (%s): missing date", inv.ID, inv.SerialNumber))
		}
	}

	return warnings
}
