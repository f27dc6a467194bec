package validation

import (
	"errors"
	"strings"
)

const maxNameLength = 200

func IsValidInventoryItem(name string, quantity int) error {
	if err := isValidName(name); err != nil {
		return err
	}
	if quantity < 0 {
		return errors.New("quantity must not be negative")
	}
	return nil
}

func isValidName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name must be provided")
	}
	if len(name) > maxNameLength {
		return errors.New("name is too long")
	}
	return nil
}
