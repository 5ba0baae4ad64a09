package domain

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var fieldMessages = map[string]string{
	"Title":            "Title is required.",
	"PriceUSD":         "Price must be a number.",
	"Year":             "Year must be a number.",
	"State":            "State must be a 2-letter code.",
	"Zip":              "ZIP must be 5 digits.",
	"FrameSizeIn":      "Frame size must be a number.",
	"RiderHeightMinIn": "Rider min height must be a number.",
	"RiderHeightMaxIn": "Rider max height must be a number.",
	"WeightLb":         "Weight must be a number.",
}

var rangeMessages = map[string]string{
	"PriceUSD":         "Price is out of range.",
	"Year":             "Year is out of range.",
	"FrameSizeIn":      "Frame size is out of range.",
	"RiderHeightMinIn": "Rider min height is out of range.",
	"RiderHeightMaxIn": "Rider max height is out of range.",
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

var intFields = []struct {
	name  string
	value func(Form) string
}{
	{"PriceUSD", func(f Form) string { return f.PriceUSD }},
	{"Year", func(f Form) string { return f.Year }},
	{"FrameSizeIn", func(f Form) string { return f.FrameSizeIn }},
	{"RiderHeightMinIn", func(f Form) string { return f.RiderHeightMinIn }},
	{"RiderHeightMaxIn", func(f Form) string { return f.RiderHeightMaxIn }},
}

// Validate reports the first invalid field, in form order, as a *FieldError.
func (f Form) Validate() error {
	t := f.trimmed()
	err := validatorInstance().Struct(t)
	if err == nil {
		for _, field := range intFields {
			if v := field.value(t); v != "" {
				if _, ok := parseInt(v); !ok {
					return &FieldError{Field: field.name, Message: rangeMessages[field.name]}
				}
			}
		}
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	first := verrs[0]
	msg, ok := fieldMessages[first.StructField()]
	if !ok {
		msg = first.Error()
	}
	return &FieldError{Field: first.StructField(), Message: msg}
}

func (f Form) trimmed() Form {
	v := reflect.ValueOf(&f).Elem()
	for i := 0; i < v.NumField(); i++ {
		if fv := v.Field(i); fv.Kind() == reflect.String {
			fv.SetString(strings.TrimSpace(fv.String()))
		}
	}
	return f
}
