package normalize

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RowContext", func() {
	var (
		now     time.Time
		headers []string
		ctx     *RowContext
	)

	BeforeEach(func() {
		now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	})

	JustBeforeEach(func() {
		ctx = NewRowContext(headers, now)
	})

	Describe("normalizing a tax-invoice row", func() {
		BeforeEach(func() {
			headers = []string{"Party Name", "Net Amount", "Tax Amount", "Total Amount"}
		})

		JustBeforeEach(func() {
			err := ctx.NormalizeRow(map[string]string{
				"Party Name":   "Acme",
				"Net Amount":   "100",
				"Tax Amount":   "18",
				"Total Amount": "118",
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should produce one product, one customer, one invoice", func() {
			ds := ctx.Dataset()
			Expect(ds.Products).To(HaveLen(1))
			Expect(ds.Customers).To(HaveLen(1))
			Expect(ds.Invoices).To(HaveLen(1))
		})

		It("should extract the product fields", func() {
			p := ctx.Dataset().Products[0]
			Expect(p.Name).To(Equal("Acme"))
			Expect(p.UnitPrice).To(Equal(100.0))
			Expect(p.Tax).To(Equal(18.0))
		})

		It("should derive the price with tax", func() {
			Expect(ctx.Dataset().Products[0].PriceWithTax).To(Equal(118.0))
		})

		It("should extract the invoice totals", func() {
			inv := ctx.Dataset().Invoices[0]
			Expect(inv.TotalAmount).To(Equal(118.0))
			Expect(inv.Tax).To(Equal(18.0))
		})

		It("should cross-reference the fragments by synthetic id", func() {
			ds := ctx.Dataset()
			Expect(ds.Invoices[0].ProductID).To(Equal(ds.Products[0].ID))
			Expect(ds.Invoices[0].CustomerID).To(Equal(ds.Customers[0].ID))
		})

		It("should default the invoice date to the processing time", func() {
			Expect(ctx.Dataset().Invoices[0].Date).To(Equal("2024-06-01"))
		})

		It("should synthesize a serial number", func() {
			Expect(ctx.Dataset().Invoices[0].SerialNumber).To(Equal("INV-1"))
		})

		It("should credit the invoice total to the customer", func() {
			Expect(ctx.Dataset().Customers[0].TotalPurchaseAmount).To(Equal(118.0))
		})
	})

	Describe("priceWithTax override", func() {
		BeforeEach(func() {
			headers = []string{"Product Name", "Unit Price", "Tax", "Price with Tax"}
		})

		JustBeforeEach(func() {
			err := ctx.NormalizeRow(map[string]string{
				"Product Name":   "Widget",
				"Unit Price":     "100",
				"Tax":            "18",
				"Price with Tax": "120",
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep the explicit value instead of recomputing", func() {
			Expect(ctx.Dataset().Products[0].PriceWithTax).To(Equal(120.0))
		})
	})

	Describe("fallbacks for absent columns", func() {
		BeforeEach(func() {
			headers = []string{"Quantity"}
		})

		JustBeforeEach(func() {
			err := ctx.NormalizeRow(map[string]string{"Quantity": "3"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should synthesize the product name", func() {
			Expect(ctx.Dataset().Products[0].Name).To(Equal("Product-0"))
		})

		It("should fall back to the unknown customer", func() {
			Expect(ctx.Dataset().Customers[0].Name).To(Equal("Unknown Customer"))
		})

		It("should default the phone number", func() {
			Expect(ctx.Dataset().Customers[0].PhoneNumber).To(Equal("N/A"))
		})

		It("should zero the absent numeric fields", func() {
			p := ctx.Dataset().Products[0]
			Expect(p.UnitPrice).To(BeZero())
			Expect(p.Tax).To(BeZero())
			Expect(p.PriceWithTax).To(BeZero())
		})
	})

	Describe("repeated customers within one file", func() {
		BeforeEach(func() {
			headers = []string{"Customer Name", "Product Name", "Total Amount"}
		})

		JustBeforeEach(func() {
			Expect(ctx.NormalizeRow(map[string]string{
				"Customer Name": "Acme", "Product Name": "Widget", "Total Amount": "100",
			})).To(Succeed())
			Expect(ctx.NormalizeRow(map[string]string{
				"Customer Name": "Acme", "Product Name": "Widget", "Total Amount": "50",
			})).To(Succeed())
		})

		It("should keep a single customer record", func() {
			Expect(ctx.Dataset().Customers).To(HaveLen(1))
		})

		It("should accumulate the purchase total", func() {
			Expect(ctx.Dataset().Customers[0].TotalPurchaseAmount).To(Equal(150.0))
		})

		It("should still create distinct invoice and product records per row", func() {
			ds := ctx.Dataset()
			Expect(ds.Invoices).To(HaveLen(2))
			Expect(ds.Products).To(HaveLen(2))
			Expect(ds.Invoices[0].ID).NotTo(Equal(ds.Invoices[1].ID))
			Expect(ds.Products[0].ID).NotTo(Equal(ds.Products[1].ID))
		})

		It("should link both invoices to the same customer", func() {
			ds := ctx.Dataset()
			Expect(ds.Invoices[0].CustomerID).To(Equal(ds.Customers[0].ID))
			Expect(ds.Invoices[1].CustomerID).To(Equal(ds.Customers[0].ID))
		})
	})

	Describe("same customer name under different companies", func() {
		BeforeEach(func() {
			headers = []string{"Customer Name", "Company Name", "Total Amount"}
		})

		JustBeforeEach(func() {
			Expect(ctx.NormalizeRow(map[string]string{
				"Customer Name": "Bob", "Company Name": "Alpha", "Total Amount": "10",
			})).To(Succeed())
			Expect(ctx.NormalizeRow(map[string]string{
				"Customer Name": "Bob", "Company Name": "Beta", "Total Amount": "20",
			})).To(Succeed())
		})

		It("should keep them distinct", func() {
			Expect(ctx.Dataset().Customers).To(HaveLen(2))
		})
	})

	Describe("empty rows", func() {
		BeforeEach(func() {
			headers = []string{"Customer Name", "Total Amount"}
		})

		It("should reject a row with no usable cells", func() {
			err := ctx.NormalizeRow(map[string]string{"Customer Name": "", "Total Amount": "  "})
			Expect(err).To(MatchError(ErrEmptyRow))
			Expect(ctx.Dataset().Invoices).To(BeEmpty())
		})
	})

	Describe("explicit serial numbers and dates", func() {
		BeforeEach(func() {
			headers = []string{"Invoice Number", "Customer Name", "Date"}
		})

		JustBeforeEach(func() {
			Expect(ctx.NormalizeRow(map[string]string{
				"Invoice Number": "INV-2024-007",
				"Customer Name":  "Acme",
				"Date":           "15/01/2024",
			})).To(Succeed())
		})

		It("should keep the supplied serial number", func() {
			Expect(ctx.Dataset().Invoices[0].SerialNumber).To(Equal("INV-2024-007"))
		})

		It("should normalize the date to ISO 8601", func() {
			Expect(ctx.Dataset().Invoices[0].Date).To(Equal("2024-01-15"))
		})
	})
})
