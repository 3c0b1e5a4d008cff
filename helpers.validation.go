package main

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BookValidator enforces the catalog field rules on books, edits and reviews
// before anything reaches the storage. The rating bounds come from the config.
type BookValidator struct {
	validate  *validator.Validate
	ratingMin float64
	ratingMax float64
}

// NewBookValidator provides a validator with the `rating` rule bound to [min, max].
func NewBookValidator(ratingMin, ratingMax float64) *BookValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	bv := &BookValidator{validate: v, ratingMin: ratingMin, ratingMax: ratingMax}
	// only fails on programming error: empty tag or nil func.
	_ = v.RegisterValidation("rating", func(fl validator.FieldLevel) bool {
		r := fl.Field().Float()
		return r >= bv.ratingMin && r <= bv.ratingMax
	})
	return bv
}

// Check validates s and converts rule violations into a *ValidationError.
func (bv *BookValidator) Check(s interface{}) error {
	err := bv.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			verr.Fields[fe.Field()] = "is required"
		case "rating":
			verr.Fields[fe.Field()] = fmt.Sprintf("must be between %g and %g", bv.ratingMin, bv.ratingMax)
		default:
			verr.Fields[fe.Field()] = "is invalid"
		}
	}
	return verr
}
