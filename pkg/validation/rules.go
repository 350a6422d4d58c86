package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	macAddressRe      = regexp.MustCompile(`^[0-9A-Fa-f]{2}([:-][0-9A-Fa-f]{2}){2,7}$`)
	inventoryNumberRe = regexp.MustCompile(`^[\p{L}\d][\p{L}\d\-_/.]*$`)
)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("mac_address", isMacAddress); err != nil {
		return err
	}
	if err := v.RegisterValidation("inventory_number", isInventoryNumber); err != nil {
		return err
	}
	if err := v.RegisterValidation("not_blank", isNotBlank); err != nil {
		return err
	}
	return nil
}

// isMacAddress - пары hex-цифр через ":" или "-". Допускаются усечённые адреса (от 3 групп).
func isMacAddress(fl validator.FieldLevel) bool {
	return macAddressRe.MatchString(fl.Field().String())
}

func isInventoryNumber(fl validator.FieldLevel) bool {
	return inventoryNumberRe.MatchString(fl.Field().String())
}

func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
