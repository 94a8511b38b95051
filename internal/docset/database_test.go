package docset

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"invoicedesk/internal/model"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	newBatch := func(id string) *Batch {
		return &Batch{
			ID: id,
			Dataset: &model.Dataset{
				Products: []model.Product{
					{ID: "product-0", Name: "Widget", Quantity: 2, UnitPrice: 100, Tax: 18, PriceWithTax: 118},
				},
				Customers: []model.Customer{
					{ID: "customer-0", Name: "Acme", PhoneNumber: "555-0100", TotalPurchaseAmount: 236},
				},
				Invoices: []model.Invoice{
					{ID: "invoice-0", SerialNumber: "INV-1", ProductID: "product-0", ProductName: "Widget",
						CustomerID: "customer-0", CustomerName: "Acme", Quantity: 2, TotalAmount: 236, Date: "2024-01-15"},
				},
			},
			Warnings: []string{"customer customer-0 (Acme): missing email"},
			Uploads: []Upload{
				{ID: "upload-0", Filename: "invoices.xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", StoredPath: "upload-0_invoices.xlsx", Size: 1024},
			},
			CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		}
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveBatch", func() {
		var err error

		JustBeforeEach(func() {
			err = db.SaveBatch(newBatch("batch-1"))
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should persist the batch", func() {
				saved, getErr := db.GetBatch("batch-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("batch-1"))
			})

			It("should round-trip the dataset", func() {
				saved, getErr := db.GetBatch("batch-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Dataset.Products).To(HaveLen(1))
				Expect(saved.Dataset.Products[0].PriceWithTax).To(Equal(118.0))
				Expect(saved.Dataset.Invoices[0].SerialNumber).To(Equal("INV-1"))
			})

			It("should round-trip the upload metadata and warnings", func() {
				saved, getErr := db.GetBatch("batch-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Uploads).To(HaveLen(1))
				Expect(saved.Uploads[0].StoredPath).To(Equal("upload-0_invoices.xlsx"))
				Expect(saved.Warnings).To(ContainElement(ContainSubstring("missing email")))
			})
		})

		When("saving the same ID again", func() {
			It("should overwrite the existing batch", func() {
				updated := newBatch("batch-1")
				updated.Warnings = nil
				Expect(db.SaveBatch(updated)).To(Succeed())

				saved, getErr := db.GetBatch("batch-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Warnings).To(BeEmpty())

				batches, listErr := db.ListBatches()
				Expect(listErr).NotTo(HaveOccurred())
				Expect(batches).To(HaveLen(1))
			})
		})
	})

	Describe("GetBatch", func() {
		When("the batch does not exist", func() {
			It("should return an error", func() {
				_, err := db.GetBatch("missing")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not found"))
			})
		})
	})

	Describe("ListBatches", func() {
		When("the database is empty", func() {
			It("should return an empty slice", func() {
				batches, err := db.ListBatches()
				Expect(err).NotTo(HaveOccurred())
				Expect(batches).NotTo(BeNil())
				Expect(batches).To(BeEmpty())
			})
		})

		When("multiple batches exist", func() {
			BeforeEach(func() {
				Expect(db.SaveBatch(newBatch("batch-1"))).To(Succeed())
				Expect(db.SaveBatch(newBatch("batch-2"))).To(Succeed())
			})

			It("should return all of them", func() {
				batches, err := db.ListBatches()
				Expect(err).NotTo(HaveOccurred())
				Expect(batches).To(HaveLen(2))
			})
		})
	})

	Describe("DeleteBatch", func() {
		BeforeEach(func() {
			Expect(db.SaveBatch(newBatch("batch-1"))).To(Succeed())
		})

		It("should remove the batch", func() {
			Expect(db.DeleteBatch("batch-1")).To(Succeed())
			_, err := db.GetBatch("batch-1")
			Expect(err).To(HaveOccurred())
		})

		It("should tolerate a missing ID", func() {
			Expect(db.DeleteBatch("missing")).To(Succeed())
		})
	})

	Describe("persistence across reopens", func() {
		It("should keep batches after closing and reopening", func() {
			Expect(db.SaveBatch(newBatch("batch-1"))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			reopened, err := NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			saved, err := reopened.GetBatch("batch-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Dataset.Customers[0].Name).To(Equal("Acme"))
			db = nil
		})
	})
})
