package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(ValidatorConfig{ValidPINs: []string{"735101"}, DeliveryLocation: "Jalpaiguri"})
	require.NoError(t, err)
	return v
}

func validForm() FormFields {
	return FormFields{
		FullName:      "Riya Sen",
		Email:         "riya@example.com",
		Mobile:        "98765 43210",
		Address:       "12 Station Road",
		City:          "Jalpaiguri",
		State:         "West Bengal",
		PinCode:       "735101",
		TermsAccepted: true,
	}
}

func TestValidateAcceptsCompleteForm(t *testing.T) {
	v := newTestValidator(t)

	result := v.Validate(validForm())
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateReportsOneReasonPerField(t *testing.T) {
	v := newTestValidator(t)

	result := v.Validate(FormFields{FullName: "   ", Email: "riya@", Mobile: "12345", PinCode: "73510"})
	require.False(t, result.Valid)
	assert.Equal(t, "Full Name is required", result.Errors[FieldFullName])
	assert.Equal(t, "Please enter a valid email address", result.Errors[FieldEmail])
	assert.Equal(t, "Please enter a valid 10-digit mobile number", result.Errors[FieldMobile])
	assert.Equal(t, "Address is required", result.Errors[FieldAddress])
	assert.Equal(t, "Please enter a valid 6-digit PIN code", result.Errors[FieldPinCode])
	assert.NotContains(t, result.Errors, FieldCity)
	assert.NotContains(t, result.Errors, FieldNotes)
}

func TestValidateRejectsUndeliverablePin(t *testing.T) {
	v := newTestValidator(t)
	form := validForm()
	form.PinCode = "123456"

	result := v.Validate(form)
	require.False(t, result.Valid)
	assert.Equal(t, "Sorry, we currently deliver only in Jalpaiguri (735101).", result.Errors[FieldPinCode])
}

func TestValidateLengthLimits(t *testing.T) {
	v := newTestValidator(t)
	form := validForm()
	long := make([]byte, 121)
	for i := range long {
		long[i] = 'a'
	}
	form.FullName = string(long)

	result := v.Validate(form)
	require.False(t, result.Valid)
	assert.Equal(t, "Full Name must be at most 120 characters", result.Errors[FieldFullName])
}

func TestCheckPin(t *testing.T) {
	v := newTestValidator(t)

	cases := []struct {
		pin   string
		valid bool
		msg   string
	}{
		{"735101", true, "PIN code is valid. Delivery available in Jalpaiguri."},
		{" 735101 ", true, "PIN code is valid. Delivery available in Jalpaiguri."},
		{"123456", false, "Sorry, we currently deliver only in Jalpaiguri (735101)."},
		{"7351", false, "Please enter a valid 6-digit PIN code."},
		{"73510a", false, "Please enter a valid 6-digit PIN code."},
	}
	for _, tc := range cases {
		status := v.CheckPin(tc.pin)
		assert.Equal(t, tc.valid, status.Valid, tc.pin)
		assert.Equal(t, tc.msg, status.Message, tc.pin)
	}
}

func TestCanSubmitLabelPriority(t *testing.T) {
	v := newTestValidator(t)

	form := validForm()
	ok, label := v.CanSubmit(form, v.Validate(form), true)
	assert.True(t, ok)
	assert.Equal(t, LabelPlaceOrder, label)

	ok, label = v.CanSubmit(form, v.Validate(form), false)
	assert.False(t, ok)
	assert.Equal(t, LabelVerifyPin, label, "an unverified pin outranks every other reason")

	noTerms := form
	noTerms.TermsAccepted = false
	_, label = v.CanSubmit(noTerms, v.Validate(noTerms), true)
	assert.Equal(t, LabelAcceptTerms, label)

	incomplete := form
	incomplete.Address = ""
	_, label = v.CanSubmit(incomplete, v.Validate(incomplete), true)
	assert.Equal(t, LabelCompleteFields, label)

	noPin := form
	noPin.PinCode = ""
	_, label = v.CanSubmit(noPin, ValidationResult{Valid: true}, false)
	assert.Equal(t, LabelVerifyPin, label)
}

func TestNewValidatorRejectsBadAllowList(t *testing.T) {
	_, err := NewValidator(ValidatorConfig{})
	require.Error(t, err)

	_, err = NewValidator(ValidatorConfig{ValidPINs: []string{"73510"}})
	require.Error(t, err)

	v, err := NewValidator(ValidatorConfig{ValidPINs: []string{"735101", "735102", "735101"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"735101", "735102"}, v.DeliveryPINs())
}
