package extract

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"invoicedesk/internal/model"
)

// buildWorkbook writes rows into the first sheet of an in-memory XLSX
func buildWorkbook(rows [][]interface{}) []byte {
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.SetSheetRow("Sheet1", cell, &row)).To(Succeed())
	}
	buf, err := f.WriteToBuffer()
	Expect(err).NotTo(HaveOccurred())
	return buf.Bytes()
}

var _ = Describe("Tabular", func() {
	var (
		file File
		ds   *model.Dataset
		err  error
	)

	JustBeforeEach(func() {
		ds, err = Tabular{}.Extract(context.Background(), file)
	})

	When("extracting a workbook with a header row", func() {
		BeforeEach(func() {
			file = File{
				Name:        "invoices.xlsx",
				ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
				Data: buildWorkbook([][]interface{}{
					{"Party Name", "Net Amount", "Tax Amount", "Total Amount"},
					{"Acme", 100, 18, 118},
					{"Globex", 200, 10, 220},
				}),
			}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should normalize every data row", func() {
			Expect(ds.Invoices).To(HaveLen(2))
			Expect(ds.Products).To(HaveLen(2))
			Expect(ds.Customers).To(HaveLen(2))
		})

		It("should resolve the ambiguous headers", func() {
			Expect(ds.Products[0].Name).To(Equal("Acme"))
			Expect(ds.Products[0].UnitPrice).To(Equal(100.0))
			Expect(ds.Invoices[0].TotalAmount).To(Equal(118.0))
		})

		It("should derive gross prices", func() {
			Expect(ds.Products[0].PriceWithTax).To(Equal(118.0))
			Expect(ds.Products[1].PriceWithTax).To(Equal(220.0))
		})
	})

	When("the first row is data, not labels", func() {
		BeforeEach(func() {
			file = File{
				Name:        "raw.xlsx",
				ContentType: "application/vnd.ms-excel",
				Data: buildWorkbook([][]interface{}{
					{"Acme", 100},
					{"Globex", 200},
				}),
			}
		})

		It("should treat every row as data under synthesized column letters", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(ds.Invoices).To(HaveLen(2))
		})

		It("should fall back to synthetic names since no column resolves", func() {
			Expect(ds.Products[0].Name).To(Equal("Product-0"))
			Expect(ds.Customers[0].Name).To(Equal("Unknown Customer"))
		})
	})

	When("extracting a CSV file", func() {
		BeforeEach(func() {
			file = File{
				Name:        "invoices.csv",
				ContentType: "text/csv",
				Data: []byte("Customer Name,Product Name,Quantity,Unit Price,Tax,Total Amount\n" +
					"Acme,Widget,2,50,18,118\n" +
					",,,,,\n" +
					"Acme,Bolt,1,10,18,11.8\n"),
			}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should skip the empty row and keep the rest", func() {
			Expect(ds.Invoices).To(HaveLen(2))
		})

		It("should aggregate the repeated customer", func() {
			Expect(ds.Customers).To(HaveLen(1))
			Expect(ds.Customers[0].TotalPurchaseAmount).To(BeNumerically("~", 129.8, 0.001))
		})
	})

	When("the workbook is not decodable", func() {
		BeforeEach(func() {
			file = File{
				Name:        "broken.xlsx",
				ContentType: "application/vnd.ms-excel",
				Data:        []byte("this is not a workbook"),
			}
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the sheet is empty", func() {
		BeforeEach(func() {
			file = File{
				Name:        "empty.xlsx",
				ContentType: "application/vnd.ms-excel",
				Data:        buildWorkbook(nil),
			}
		})

		It("should return an empty dataset with non-nil arrays", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(ds.Products).NotTo(BeNil())
			Expect(ds.Products).To(BeEmpty())
			Expect(ds.Invoices).To(BeEmpty())
		})
	})
})
