package docset

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			savedPath string
			err       error
		)

		JustBeforeEach(func() {
			savedPath, err = storage.Save("upload-1_invoices.csv", []byte("Customer Name\nAcme\n"))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the stored path", func() {
			Expect(savedPath).To(Equal("upload-1_invoices.csv"))
		})

		It("should write the file to disk", func() {
			Expect(filepath.Join(tmpDir, "upload-1_invoices.csv")).To(BeAnExistingFile())
		})
	})

	Describe("Get", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("scan.pdf", []byte("%PDF-1.4"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the original bytes", func() {
				data, err := storage.Get("scan.pdf")
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("%PDF-1.4")))
			})
		})

		When("the file does not exist", func() {
			It("returns the error", func() {
				_, err := storage.Get("missing.pdf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("reading file"))
			})
		})
	})

	Describe("Delete", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("scan.pdf", []byte("%PDF-1.4"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should remove the file from disk", func() {
				Expect(storage.Delete("scan.pdf")).To(Succeed())
				Expect(filepath.Join(tmpDir, "scan.pdf")).NotTo(BeAnExistingFile())
			})
		})

		When("the file does not exist", func() {
			It("returns the error", func() {
				err := storage.Delete("missing.pdf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("deleting file"))
			})
		})
	})

	Describe("NewLocalStorage", func() {
		When("the directory does not exist yet", func() {
			It("should create it", func() {
				path := filepath.Join(GinkgoT().TempDir(), "uploads")
				created, err := NewLocalStorage(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(path).To(BeADirectory())

				_, err = created.Save("a.csv", []byte("data"))
				Expect(err).NotTo(HaveOccurred())
			})
		})
	})
})
