package docset

import (
	"strings"

	"invoicedesk/internal/model"
)

// Merge combines per-file datasets, in file order, into one.
//
// Products key on name+id so same-named but distinct records from
// different files coexist; a later file's record for an existing key
// overwrites the stored one. Customers key on their logical identity
// (company name + name) and accumulate TotalPurchaseAmount across
// files, with last-write-wins for the remaining fields. Invoices are
// unioned; only an exact serial-number-and-id collision counts as a
// duplicate.
//
// A single dataset is returned as-is.
func Merge(datasets []*model.Dataset) *model.Dataset {
	switch len(datasets) {
	case 0:
		return model.NewDataset()
	case 1:
		return datasets[0]
	}

	out := model.NewDataset()
	productIdx := make(map[string]int)
	customerIdx := make(map[string]int)
	invoiceIdx := make(map[string]int)

	for _, ds := range datasets {
		if ds == nil {
			continue
		}

		for _, p := range ds.Products {
			key := mergeKey(p.Name, p.ID)
			if idx, ok := productIdx[key]; ok {
				out.Products[idx] = p
			} else {
				out.Products = append(out.Products, p)
				productIdx[key] = len(out.Products) - 1
			}
		}

		for _, c := range ds.Customers {
			key := mergeKey(c.CompanyName, c.Name)
			if idx, ok := customerIdx[key]; ok {
				total := out.Customers[idx].TotalPurchaseAmount + c.TotalPurchaseAmount
				out.Customers[idx] = c
				out.Customers[idx].TotalPurchaseAmount = total
			} else {
				out.Customers = append(out.Customers, c)
				customerIdx[key] = len(out.Customers) - 1
			}
		}

		for _, inv := range ds.Invoices {
			key := inv.SerialNumber + "|" + inv.ID
			if idx, ok := invoiceIdx[key]; ok {
				out.Invoices[idx] = inv
			} else {
				out.Invoices = append(out.Invoices, inv)
				invoiceIdx[key] = len(out.Invoices) - 1
			}
		}
	}

	return out
}

func mergeKey(a, b string) string {
	return strings.TrimSpace(a) + "|" + strings.TrimSpace(b)
}
