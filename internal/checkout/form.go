package checkout

import (
	"regexp"
	"strings"
)

// Field identifies one billing form input.
type Field string

const (
	FieldEmail     Field = "email"
	FieldPhone     Field = "phone"
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldCountry   Field = "country"
	FieldStreet    Field = "street"
	FieldApartment Field = "apartment"
	FieldCity      Field = "city"
	FieldState     Field = "state"
	FieldPincode   Field = "pincode"
	FieldNotes     Field = "notes"
)

// BillingForm carries the raw billing inputs collected before payment.
type BillingForm struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Country   string `json:"country"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Notes     string `json:"notes"`
}

var (
	emailPattern   = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern   = regexp.MustCompile(`^\d{10}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

// fieldRule validates one field value and returns a user-facing message, or
// an empty string when the value is acceptable.
type fieldRule func(value string) string

func requiredRule(message string) fieldRule {
	return func(value string) string {
		if strings.TrimSpace(value) == "" {
			return message
		}
		return ""
	}
}

func optionalRule(string) string { return "" }

var rulesByField = map[Field]fieldRule{
	FieldEmail: func(value string) string {
		if strings.TrimSpace(value) == "" {
			return "Email is required"
		}
		if !emailPattern.MatchString(value) {
			return "Invalid email format"
		}
		return ""
	},
	FieldPhone: func(value string) string {
		if strings.TrimSpace(value) == "" {
			return "Phone number is required"
		}
		if !phonePattern.MatchString(value) {
			return "Invalid phone number"
		}
		return ""
	},
	FieldFirstName: requiredRule("First name is required"),
	FieldLastName:  requiredRule("Last name is required"),
	FieldCountry:   requiredRule("Country is required"),
	FieldStreet:    requiredRule("Street address is required"),
	FieldCity:      requiredRule("City is required"),
	FieldState:     requiredRule("State is required"),
	FieldPincode: func(value string) string {
		if strings.TrimSpace(value) == "" {
			return "Pincode is required"
		}
		if !pincodePattern.MatchString(value) {
			return "Pincode must be 6 digits"
		}
		return ""
	},
	FieldApartment: optionalRule,
	FieldNotes:     optionalRule,
}

// ValidateField runs the rule for a single field. Unknown fields are
// accepted so additive form changes never break validation.
func ValidateField(field Field, value string) string {
	rule, ok := rulesByField[field]
	if !ok {
		return ""
	}
	return rule(value)
}

func (f BillingForm) valueOf(field Field) string {
	switch field {
	case FieldEmail:
		return f.Email
	case FieldPhone:
		return f.Phone
	case FieldFirstName:
		return f.FirstName
	case FieldLastName:
		return f.LastName
	case FieldCountry:
		return f.Country
	case FieldStreet:
		return f.Street
	case FieldApartment:
		return f.Apartment
	case FieldCity:
		return f.City
	case FieldState:
		return f.State
	case FieldPincode:
		return f.Pincode
	case FieldNotes:
		return f.Notes
	default:
		return ""
	}
}

// Validate runs every field rule and returns the error map keyed by field.
// An empty map means the form is valid.
func (f BillingForm) Validate() map[Field]string {
	errs := make(map[Field]string)
	for field := range rulesByField {
		if msg := ValidateField(field, f.valueOf(field)); msg != "" {
			errs[field] = msg
		}
	}
	return errs
}

// IsValid reports whether every field rule passes.
func (f BillingForm) IsValid() bool {
	return len(f.Validate()) == 0
}
