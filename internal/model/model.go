package model

// Product represents one normalized product record
type Product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	Tax          float64 `json:"tax"` // Percentage, not an absolute amount
	PriceWithTax float64 `json:"priceWithTax"`
	Discount     float64 `json:"discount,omitempty"`
}

// ComputePriceWithTax derives the gross price from UnitPrice and the Tax
// percentage. Callers that received an explicit gross price keep it and
// skip this.
func (p *Product) ComputePriceWithTax() {
	p.PriceWithTax = p.UnitPrice * (1 + p.Tax/100)
}

// Customer represents one normalized customer record
type Customer struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	CompanyName         string  `json:"companyName,omitempty"`
	PhoneNumber         string  `json:"phoneNumber"`
	Email               string  `json:"email,omitempty"`
	Address             string  `json:"address,omitempty"`
	TotalPurchaseAmount float64 `json:"totalPurchaseAmount"`
}

// Invoice represents one normalized invoice line. ProductName and
// CustomerName are denormalized for display and kept in sync with the
// referenced entities on edit.
type Invoice struct {
	ID           string  `json:"id"`
	SerialNumber string  `json:"serialNumber"`
	CustomerID   string  `json:"customerId"`
	CustomerName string  `json:"customerName"`
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	Quantity     float64 `json:"quantity"`
	Tax          float64 `json:"tax"`
	TotalAmount  float64 `json:"totalAmount"`
	Date         string  `json:"date"` // ISO 8601 format
}

// Dataset is the triple produced by one normalization pass over one or
// more source files.
type Dataset struct {
	Products  []Product  `json:"products"`
	Customers []Customer `json:"customers"`
	Invoices  []Invoice  `json:"invoices"`
}

// NewDataset returns an empty dataset with non-nil slices so consumers
// always see arrays, never null.
func NewDataset() *Dataset {
	return &Dataset{
		Products:  make([]Product, 0),
		Customers: make([]Customer, 0),
		Invoices:  make([]Invoice, 0),
	}
}
