package validation

import (
	"errors"
	"strings"
)

func IsValidUser(name, email string) error {
	if err := isValidName(name); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email must be provided")
	}
	if !strings.Contains(email, "@") {
		return errors.New("email must contain '@'")
	}
	return nil
}
