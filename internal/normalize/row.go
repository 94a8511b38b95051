package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"invoicedesk/internal/model"
)

// ErrEmptyRow is returned for rows with no usable cells; callers skip
// the row and continue.
var ErrEmptyRow = errors.New("row has no usable cells")

// RowContext carries the per-file state of a normalization pass: the
// resolved columns and the running aggregates. A context belongs to a
// single file and is never shared.
type RowContext struct {
	now     time.Time
	index   int
	columns map[Field]string

	// customerIdx and productIdx map logical keys to positions in the
	// accumulated dataset. Customers aggregate on repeat occurrences;
	// products are tracked for lookup only, every row still appends a
	// fresh product record.
	customerIdx map[string]int
	productIdx  map[string]int

	dataset *model.Dataset
}

// NewRowContext resolves every canonical field against the header row
// once, then hands back a context ready to normalize data rows.
func NewRowContext(headers []string, now time.Time) *RowContext {
	columns := make(map[Field]string)
	for field := range synonyms {
		if m, ok := Resolve(field, headers); ok {
			columns[field] = m.Header
		}
	}

	return &RowContext{
		now:         now,
		columns:     columns,
		customerIdx: make(map[string]int),
		productIdx:  make(map[string]int),
		dataset:     model.NewDataset(),
	}
}

// Dataset returns the triple accumulated so far.
func (c *RowContext) Dataset() *model.Dataset {
	return c.dataset
}

// cell returns the trimmed value of the resolved column for a field.
func (c *RowContext) cell(row map[string]string, field Field) (string, bool) {
	header, ok := c.columns[field]
	if !ok {
		return "", false
	}
	v := strings.TrimSpace(row[header])
	return v, v != ""
}

// number returns the numeric value for a field, or 0 when the column is
// absent or not numeric.
func (c *RowContext) number(row map[string]string, field Field) float64 {
	v, ok := c.cell(row, field)
	if !ok {
		return 0
	}
	n, _ := ParseNumber(v)
	return n
}

// NormalizeRow converts one raw row into product, customer and invoice
// fragments and folds them into the running dataset. Every row produces
// a fresh product and invoice record; customers repeat-occurring under
// the same company+name key accumulate their purchase total instead of
// duplicating.
func (c *RowContext) NormalizeRow(row map[string]string) error {
	empty := true
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			empty = false
			break
		}
	}
	if empty {
		return ErrEmptyRow
	}

	i := c.index
	c.index++

	quantity := c.number(row, FieldQuantity)
	tax := c.number(row, FieldTax)
	totalAmount := c.number(row, FieldTotalAmount)

	// Product fragment
	productName, ok := c.cell(row, FieldProductName)
	if !ok {
		productName = fmt.Sprintf("Product-%d", i)
	}
	product := model.Product{
		ID:        fmt.Sprintf("product-%d", i),
		Name:      productName,
		Quantity:  quantity,
		UnitPrice: c.number(row, FieldUnitPrice),
		Tax:       tax,
		Discount:  c.number(row, FieldDiscount),
	}
	if raw, ok := c.cell(row, FieldPriceWithTax); ok {
		product.PriceWithTax, _ = ParseNumber(raw)
	} else {
		product.ComputePriceWithTax()
	}
	c.dataset.Products = append(c.dataset.Products, product)
	c.productIdx[productKey(productName)] = len(c.dataset.Products) - 1

	// Customer fragment
	customerName, ok := c.cell(row, FieldCustomerName)
	if !ok {
		customerName = "Unknown Customer"
	}
	companyName, _ := c.cell(row, FieldCompanyName)
	key := customerKey(companyName, customerName)

	var customer *model.Customer
	if idx, ok := c.customerIdx[key]; ok {
		customer = &c.dataset.Customers[idx]
		customer.TotalPurchaseAmount += totalAmount
		c.fillContact(customer, row)
	} else {
		phone, ok := c.cell(row, FieldPhoneNumber)
		if !ok {
			phone = "N/A"
		}
		email, _ := c.cell(row, FieldEmail)
		address, _ := c.cell(row, FieldAddress)
		c.dataset.Customers = append(c.dataset.Customers, model.Customer{
			ID:                  fmt.Sprintf("customer-%d", i),
			Name:                customerName,
			CompanyName:         companyName,
			PhoneNumber:         phone,
			Email:               email,
			Address:             address,
			TotalPurchaseAmount: totalAmount,
		})
		c.customerIdx[key] = len(c.dataset.Customers) - 1
		customer = &c.dataset.Customers[len(c.dataset.Customers)-1]
	}

	// Invoice fragment
	serial, ok := c.cell(row, FieldSerialNumber)
	if !ok {
		serial = fmt.Sprintf("INV-%d", i+1)
	}
	dateRaw, _ := c.cell(row, FieldDate)
	c.dataset.Invoices = append(c.dataset.Invoices, model.Invoice{
		ID:           fmt.Sprintf("invoice-%d", i),
		SerialNumber: serial,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		ProductID:    product.ID,
		ProductName:  product.Name,
		Quantity:     quantity,
		Tax:          tax,
		TotalAmount:  totalAmount,
		Date:         ToISODate(dateRaw, c.now),
	})

	return nil
}

// fillContact backfills contact fields a later row supplies for an
// already-seen customer. Existing values win.
func (c *RowContext) fillContact(customer *model.Customer, row map[string]string) {
	if phone, ok := c.cell(row, FieldPhoneNumber); ok && (customer.PhoneNumber == "" || customer.PhoneNumber == "N/A") {
		customer.PhoneNumber = phone
	}
	if email, ok := c.cell(row, FieldEmail); ok && customer.Email == "" {
		customer.Email = email
	}
	if address, ok := c.cell(row, FieldAddress); ok && customer.Address == "" {
		customer.Address = address
	}
}

func productKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func customerKey(companyName, customerName string) string {
	return strings.ToLower(strings.TrimSpace(companyName)) + "|" + strings.ToLower(strings.TrimSpace(customerName))
}
