package normalize

import "strings"

// Field is a canonical semantic field name that many raw header
// spellings resolve to.
type Field string

const (
	FieldSerialNumber Field = "serialNumber"
	FieldCustomerName Field = "customerName"
	FieldCompanyName  Field = "companyName"
	FieldProductName  Field = "productName"
	FieldQuantity     Field = "quantity"
	FieldUnitPrice    Field = "unitPrice"
	FieldTax          Field = "tax"
	FieldPriceWithTax Field = "priceWithTax"
	FieldTotalAmount  Field = "totalAmount"
	FieldDiscount     Field = "discount"
	FieldPhoneNumber  Field = "phoneNumber"
	FieldEmail        Field = "email"
	FieldAddress      Field = "address"
	FieldDate         Field = "date"
)

// synonyms maps each canonical field to the header spellings seen in the
// wild. None of these lists is authoritative; matching is best-effort
// containment, not exact schema binding.
var synonyms = map[Field][]string{
	FieldSerialNumber: {"serial number", "invoice number", "serial no", "invoice no", "invoice id", "bill number"},
	FieldCustomerName: {"party name", "customer name", "client", "customer", "buyer"},
	FieldCompanyName:  {"company name", "organization", "business name", "firm", "company"},
	FieldProductName:  {"product name", "item name", "description", "product", "item", "party name"},
	FieldQuantity:     {"quantity", "qty", "units"},
	FieldUnitPrice:    {"unit price", "price per unit", "net amount", "unit cost", "rate", "price"},
	FieldTax:          {"tax amount", "tax rate", "tax", "gst"},
	FieldPriceWithTax: {"price with tax", "price after tax", "gross amount", "total price"},
	FieldTotalAmount:  {"total amount", "grand total", "invoice total", "total", "amount"},
	FieldDiscount:     {"discount"},
	FieldPhoneNumber:  {"phone number", "contact number", "phone", "mobile"},
	FieldEmail:        {"email", "e-mail", "mail id"},
	FieldAddress:      {"billing address", "address", "location"},
	FieldDate:         {"invoice date", "transaction date", "date"},
}

// Match is the outcome of a successful column resolution. Confidence is
// deliberately coarse: 1.0 for an exact synonym hit, 0.5 for a
// containment hit. It exists so a stricter or fuzzier matcher can be
// dropped in later without changing call sites.
type Match struct {
	Header     string
	Confidence float64
}

// squash lowercases a label and strips separators so that "Unit Price",
// "unit_price" and "unitPrice" all compare equal.
func squash(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch r {
		case ' ', '\t', '_', '-', '.', ':':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve maps a canonical field to one of the observed headers.
// Exact synonym equality wins over containment; within each pass ties
// are broken by header order. A false return means the field is absent
// from this source, which callers must treat as normal, not an error.
func Resolve(field Field, headers []string) (Match, bool) {
	syns := make([]string, 0, len(synonyms[field]))
	for _, syn := range synonyms[field] {
		syns = append(syns, squash(syn))
	}

	for _, h := range headers {
		sh := squash(h)
		if sh == "" {
			continue
		}
		for _, syn := range syns {
			if sh == syn {
				return Match{Header: h, Confidence: 1.0}, true
			}
		}
	}

	for _, h := range headers {
		sh := squash(h)
		if sh == "" {
			continue
		}
		for _, syn := range syns {
			// Very short headers (column letters like "A", "AB") would
			// match almost any synonym in reverse; require some substance
			if strings.Contains(sh, syn) || (len(sh) >= 3 && strings.Contains(syn, sh)) {
				return Match{Header: h, Confidence: 0.5}, true
			}
		}
	}

	return Match{}, false
}
