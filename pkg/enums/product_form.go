package enums

import "fmt"

// ProductForm is the dosage form of a catalog product.
type ProductForm string

const (
	ProductFormTablet    ProductForm = "tablet"
	ProductFormCapsule   ProductForm = "capsule"
	ProductFormSyrup     ProductForm = "syrup"
	ProductFormInjection ProductForm = "injection"
	ProductFormCream     ProductForm = "cream"
	ProductFormDrops     ProductForm = "drops"
	ProductFormInhaler   ProductForm = "inhaler"
	ProductFormOther     ProductForm = "other"
)

var validProductForms = []ProductForm{
	ProductFormTablet,
	ProductFormCapsule,
	ProductFormSyrup,
	ProductFormInjection,
	ProductFormCream,
	ProductFormDrops,
	ProductFormInhaler,
	ProductFormOther,
}

// String implements fmt.Stringer.
func (f ProductForm) String() string {
	return string(f)
}

// IsValid reports whether the value matches a known ProductForm.
func (f ProductForm) IsValid() bool {
	for _, candidate := range validProductForms {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseProductForm converts raw input into a ProductForm.
func ParseProductForm(value string) (ProductForm, error) {
	for _, candidate := range validProductForms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product form %q", value)
}
