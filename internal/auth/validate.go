package auth

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type signInInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type signUpInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

func validateCredentials(email, password string, signUp bool) error {
	var err error
	if signUp {
		err = validate.Struct(signUpInput{Email: email, Password: password})
	} else {
		err = validate.Struct(signInInput{Email: email, Password: password})
	}
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fe := fieldErrs[0]
	switch {
	case fe.Field() == "Email" && fe.Tag() == "required":
		return &Error{Code: "MISSING_EMAIL", Message: "Enter your email address."}
	case fe.Field() == "Email":
		return &Error{Code: "INVALID_EMAIL", Message: messages["INVALID_EMAIL"]}
	case fe.Tag() == "required":
		return &Error{Code: "MISSING_PASSWORD", Message: messages["MISSING_PASSWORD"]}
	default:
		return &Error{Code: "WEAK_PASSWORD", Message: messages["WEAK_PASSWORD"]}
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
