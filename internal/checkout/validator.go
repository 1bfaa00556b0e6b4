package checkout

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	FieldFullName = "fullName"
	FieldEmail    = "email"
	FieldMobile   = "mobile"
	FieldAddress  = "address"
	FieldCity     = "city"
	FieldState    = "state"
	FieldPinCode  = "pincode"
	FieldNotes    = "notes"
	FieldTerms    = "termsAccepted"
)

var (
	emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits  = regexp.MustCompile(`\D`)
	sixDigits  = regexp.MustCompile(`^[0-9]{6}$`)

	displayNames = map[string]string{
		FieldFullName: "Full Name",
		FieldEmail:    "Email",
		FieldMobile:   "Mobile Number",
		FieldAddress:  "Address",
		FieldCity:     "City",
		FieldState:    "State",
		FieldPinCode:  "PIN Code",
		FieldNotes:    "Order Notes",
	}
)

// FormFields are the shopper-entered checkout values.
type FormFields struct {
	FullName      string `json:"fullName" validate:"required,max=120"`
	Email         string `json:"email" validate:"required,emailshape,max=254"`
	Mobile        string `json:"mobile" validate:"required,mobile10"`
	Address       string `json:"address" validate:"required,max=500"`
	City          string `json:"city" validate:"max=100"`
	State         string `json:"state" validate:"max=100"`
	PinCode       string `json:"pincode" validate:"required,pin6,deliverable"`
	Notes         string `json:"notes" validate:"max=1000"`
	TermsAccepted bool   `json:"termsAccepted"`
}

// Trimmed returns a copy with surrounding whitespace removed from every text field.
func (f FormFields) Trimmed() FormFields {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.Mobile = strings.TrimSpace(f.Mobile)
	f.Address = strings.TrimSpace(f.Address)
	f.City = strings.TrimSpace(f.City)
	f.State = strings.TrimSpace(f.State)
	f.PinCode = strings.TrimSpace(f.PinCode)
	f.Notes = strings.TrimSpace(f.Notes)
	return f
}

// ValidationResult is the field-level verdict. Errors holds at most one reason per field.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// PinStatus is the outcome of the deliverability check.
type PinStatus struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// SubmitLabel is the text of the place-order control.
type SubmitLabel string

const (
	LabelVerifyPin      SubmitLabel = "Please verify PIN code"
	LabelAcceptTerms    SubmitLabel = "Accept Terms to Continue"
	LabelCompleteFields SubmitLabel = "Complete Required Fields"
	LabelPlaceOrder     SubmitLabel = "Place Order"
)

// ValidatorConfig carries the deliverability allow-list.
type ValidatorConfig struct {
	ValidPINs        []string
	DeliveryLocation string
}

// Validator checks checkout forms. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	pins     map[string]struct{}
	pinList  []string
	location string
}

// NewValidator builds a validator bound to the allow-list.
func NewValidator(cfg ValidatorConfig) (*Validator, error) {
	v := &Validator{
		pins:     make(map[string]struct{}, len(cfg.ValidPINs)),
		location: strings.TrimSpace(cfg.DeliveryLocation),
	}
	for _, pin := range cfg.ValidPINs {
		pin = strings.TrimSpace(pin)
		if !sixDigits.MatchString(pin) {
			return nil, fmt.Errorf("allow-listed pin %q is not a 6-digit code", pin)
		}
		if _, dup := v.pins[pin]; dup {
			continue
		}
		v.pins[pin] = struct{}{}
		v.pinList = append(v.pinList, pin)
	}
	if len(v.pinList) == 0 {
		return nil, fmt.Errorf("at least one deliverable pin is required")
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	rules := map[string]validator.Func{
		"emailshape": func(fl validator.FieldLevel) bool {
			return emailShape.MatchString(fl.Field().String())
		},
		"mobile10": func(fl validator.FieldLevel) bool {
			return len(nonDigits.ReplaceAllString(fl.Field().String(), "")) == 10
		},
		"pin6": func(fl validator.FieldLevel) bool {
			return sixDigits.MatchString(fl.Field().String())
		},
		"deliverable": func(fl validator.FieldLevel) bool {
			return v.deliverable(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %s validation: %w", tag, err)
		}
	}
	v.validate = validate
	return v, nil
}

// Validate runs every field rule. It has no side effects.
func (v *Validator) Validate(form FormFields) ValidationResult {
	result := ValidationResult{Valid: true, Errors: map[string]string{}}
	trimmed := form.Trimmed()
	err := v.validate.Struct(trimmed)
	if err == nil {
		return result
	}
	result.Valid = false
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		result.Errors["form"] = "Please correct the form errors before submitting."
		return result
	}
	for _, fe := range errs {
		if _, seen := result.Errors[fe.Field()]; seen {
			continue
		}
		result.Errors[fe.Field()] = v.message(fe)
	}
	return result
}

// CheckPin is the standalone deliverability check behind the "check PIN" action.
func (v *Validator) CheckPin(pin string) PinStatus {
	pin = strings.TrimSpace(pin)
	if !sixDigits.MatchString(pin) {
		return PinStatus{Message: "Please enter a valid 6-digit PIN code."}
	}
	if !v.deliverable(pin) {
		return PinStatus{Message: v.undeliverableMessage()}
	}
	return PinStatus{Valid: true, Message: fmt.Sprintf("PIN code is valid. Delivery available in %s.", v.location)}
}

// CanSubmit combines field validity, terms acceptance and the PIN check. The
// label follows the priority the place-order control displays.
func (v *Validator) CanSubmit(form FormFields, result ValidationResult, pinValid bool) (bool, SubmitLabel) {
	switch {
	case !pinValid && strings.TrimSpace(form.PinCode) != "":
		return false, LabelVerifyPin
	case !form.TermsAccepted:
		return false, LabelAcceptTerms
	case !result.Valid:
		return false, LabelCompleteFields
	case !pinValid:
		return false, LabelVerifyPin
	default:
		return true, LabelPlaceOrder
	}
}

// DeliveryPINs returns the allow-list in configured order.
func (v *Validator) DeliveryPINs() []string {
	out := make([]string, len(v.pinList))
	copy(out, v.pinList)
	return out
}

func (v *Validator) deliverable(pin string) bool {
	_, ok := v.pins[strings.TrimSpace(pin)]
	return ok
}

func (v *Validator) undeliverableMessage() string {
	return fmt.Sprintf("Sorry, we currently deliver only in %s (%s).", v.location, strings.Join(v.pinList, ", "))
}

func (v *Validator) message(fe validator.FieldError) string {
	name := displayNames[fe.Field()]
	if name == "" {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "emailshape":
		return "Please enter a valid email address"
	case "mobile10":
		return "Please enter a valid 10-digit mobile number"
	case "pin6":
		return "Please enter a valid 6-digit PIN code"
	case "deliverable":
		return v.undeliverableMessage()
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", name)
}
