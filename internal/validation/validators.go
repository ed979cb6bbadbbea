// Package validation holds the shared request validator and the route
// parameter checks. Struct-tag failures are translated into the exact
// user-facing messages of the error contract.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/branchline/todotree/internal/apperrors"
)

// Validate is the shared validator instance. Field names in messages come
// from json tags, not Go identifiers.
var Validate *validator.Validate

func init() {
	Validate = validator.New()
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

var onlyDigits = regexp.MustCompile(`^\d+$`)

// TodoRouteParam parses an {id} route segment. Anything but plain digits
// is a bad parameter, distinct from a not-found.
func TodoRouteParam(param string) (int64, error) {
	if !onlyDigits.MatchString(param) {
		return 0, apperrors.NewBadParameter("ID route parameter must be an integer")
	}
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return 0, apperrors.NewBadParameter("ID route parameter must be an integer")
	}
	return id, nil
}

// CheckStruct runs struct-tag validation and converts the first failure to
// a ValidationError with the contract's message wording.
func CheckStruct(s any) error {
	if err := Validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return toValidationError(verrs[0])
		}
		return err
	}
	return nil
}

func toValidationError(fe validator.FieldError) error {
	nice := niceFieldName(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperrors.NewValidation(fmt.Sprintf("Your user needs a %s", nice))
	case "max":
		return apperrors.NewValidation(fmt.Sprintf("Your %s must be %s characters or fewer", nice, fe.Param()))
	}
	return apperrors.NewValidation(fmt.Sprintf("Your %s is invalid", nice))
}

func niceFieldName(field string) string {
	if field == "password_plaintext" {
		return "password"
	}
	return strings.ReplaceAll(field, "_", " ")
}
