package users

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	lettersPattern = regexp.MustCompile(`^[A-Za-z\s]+$`)
	mobilePattern  = regexp.MustCompile(`^\d{10}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("letters", func(fl validator.FieldLevel) bool {
		return lettersPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	return v
}

var fieldLabels = map[string]string{
	"FirstName":    "First Name",
	"LastName":     "Last Name",
	"Email":        "Email",
	"MobileNumber": "Mobile Number",
	"Password":     "Password",
	"RoleID":       "Role",
	"Status":       "Status",
}

// validateInput checks the form. Password is mandatory only when creating.
func validateInput(v *validator.Validate, in UserInput, creating bool) map[string]string {
	errs := map[string]string{}
	if err := v.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs[fe.Field()] = message(fe)
			}
		}
	}
	if creating && in.Password == "" {
		errs["Password"] = "Password is required"
	}
	return errs
}

func message(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if fe.Tag() == "required" {
		return label + " is required"
	}
	switch fe.Field() {
	case "FirstName", "LastName":
		return label + " must contain only letters"
	case "Email":
		return "Enter a valid email address"
	case "MobileNumber":
		return "Enter a valid 10-digit number"
	case "Password":
		return "Password must be 6 alphanumeric characters"
	default:
		return "Invalid " + label
	}
}
