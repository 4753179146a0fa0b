package localauth

import (
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type registerInput struct {
	LoginID     string `json:"login_id"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (r registerInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.LoginID,
			validation.Required,
			validation.Length(4, 20),
			is.Alphanumeric,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 50),
			validation.By(requireLetterAndDigit),
		),
		validation.Field(
			&r.DisplayName,
			validation.Required,
			validation.Length(2, 20),
		),
	)
}

type profileInput struct {
	DisplayName string `json:"display_name"`
}

func (p profileInput) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.DisplayName,
			validation.Required,
			validation.Length(2, 20),
		),
	)
}

func requireLetterAndDigit(value any) error {
	s, _ := value.(string)

	var hasLetter, hasDigit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return goerrors.New("must contain at least one letter and one digit", goerrors.CategoryValidation)
	}

	return nil
}
