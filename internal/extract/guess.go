package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"invoicedesk/internal/model"
	"invoicedesk/internal/normalize"
)

// TabGuess is the loosely-typed shape returned by extraction
// collaborators. Each tab may be a single record, an array of records,
// absent, or garbage; NormalizeGuess sorts that out.
type TabGuess struct {
	ProductsTab  json.RawMessage `json:"ProductsTab"`
	CustomersTab json.RawMessage `json:"CustomersTab"`
	InvoicesTab  json.RawMessage `json:"InvoicesTab"`
}

// decodeRecords turns a tab into a record list, wrapping a bare object
// in a single-element list. Undecodable tabs degrade to empty.
func decodeRecords(raw json.RawMessage) []map[string]any {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var single map[string]any
	if err := json.Unmarshal(raw, &single); err == nil {
		return []map[string]any{single}
	}

	return nil
}

// record wraps one loosely-typed extracted record. Field access goes
// through the column resolver so the collaborator's key spellings don't
// need to match ours exactly.
type record struct {
	values map[string]any
	keys   []string
}

func newRecord(values map[string]any) record {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return record{values: values, keys: keys}
}

func (r record) str(field normalize.Field) string {
	m, ok := normalize.Resolve(field, r.keys)
	if !ok {
		return ""
	}
	switch v := r.values[m.Header].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	default:
		return ""
	}
}

func (r record) num(field normalize.Field) (float64, bool) {
	m, ok := normalize.Resolve(field, r.keys)
	if !ok {
		return 0, false
	}
	switch v := r.values[m.Header].(type) {
	case float64:
		return v, true
	case string:
		return normalize.ParseNumber(v)
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func (r record) numOrZero(field normalize.Field) float64 {
	n, _ := r.num(field)
	return n
}

// id returns an explicit id from the record, if the collaborator
// supplied one.
func (r record) id() string {
	for _, key := range r.keys {
		if strings.EqualFold(key, "id") {
			if s, ok := r.values[key].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// NormalizeGuess converts a collaborator's tab guess into a dataset:
// singletons are wrapped, missing ids are assigned by position, and
// invoices are re-linked to products and customers by exact display-name
// match. A name mismatch (including casing or whitespace differences)
// silently yields a synthesized unknown reference.
func NormalizeGuess(guess *TabGuess) *model.Dataset {
	ds := model.NewDataset()
	if guess == nil {
		return ds
	}
	now := time.Now()

	productIDs := make(map[string]string)
	for i, values := range decodeRecords(guess.ProductsTab) {
		rec := newRecord(values)
		id := rec.id()
		if id == "" {
			id = fmt.Sprintf("product-%d", i)
		}
		p := model.Product{
			ID:        id,
			Name:      rec.str(normalize.FieldProductName),
			Quantity:  rec.numOrZero(normalize.FieldQuantity),
			UnitPrice: rec.numOrZero(normalize.FieldUnitPrice),
			Tax:       rec.numOrZero(normalize.FieldTax),
			Discount:  rec.numOrZero(normalize.FieldDiscount),
		}
		if gross, ok := rec.num(normalize.FieldPriceWithTax); ok {
			p.PriceWithTax = gross
		} else {
			p.ComputePriceWithTax()
		}
		ds.Products = append(ds.Products, p)
		productIDs[p.Name] = p.ID
	}

	customerIDs := make(map[string]string)
	for i, values := range decodeRecords(guess.CustomersTab) {
		rec := newRecord(values)
		id := rec.id()
		if id == "" {
			id = fmt.Sprintf("customer-%d", i)
		}
		phone := rec.str(normalize.FieldPhoneNumber)
		if phone == "" {
			phone = "N/A"
		}
		c := model.Customer{
			ID:                  id,
			Name:                rec.str(normalize.FieldCustomerName),
			CompanyName:         rec.str(normalize.FieldCompanyName),
			PhoneNumber:         phone,
			Email:               rec.str(normalize.FieldEmail),
			Address:             rec.str(normalize.FieldAddress),
			TotalPurchaseAmount: rec.numOrZero(normalize.FieldTotalAmount),
		}
		ds.Customers = append(ds.Customers, c)
		customerIDs[c.Name] = c.ID
	}

	for i, values := range decodeRecords(guess.InvoicesTab) {
		rec := newRecord(values)
		id := rec.id()
		if id == "" {
			id = fmt.Sprintf("invoice-%d", i)
		}
		serial := rec.str(normalize.FieldSerialNumber)
		if serial == "" {
			serial = fmt.Sprintf("INV-%d", i+1)
		}
		productName := rec.str(normalize.FieldProductName)
		customerName := rec.str(normalize.FieldCustomerName)

		productID, ok := productIDs[productName]
		if !ok {
			productID = "unknown-product"
		}
		customerID, ok := customerIDs[customerName]
		if !ok {
			customerID = "unknown-customer"
		}

		ds.Invoices = append(ds.Invoices, model.Invoice{
			ID:           id,
			SerialNumber: serial,
			CustomerID:   customerID,
			CustomerName: customerName,
			ProductID:    productID,
			ProductName:  productName,
			Quantity:     rec.numOrZero(normalize.FieldQuantity),
			Tax:          rec.numOrZero(normalize.FieldTax),
			TotalAmount:  rec.numOrZero(normalize.FieldTotalAmount),
			Date:         normalize.ToISODate(rec.str(normalize.FieldDate), now),
		})
	}

	return ds
}
