package api

import (
	"reflect" // Custom type registration

	"expense_tracker/internal/domain" // Amount rules

	"github.com/gin-gonic/gin/binding"       // Gin's validator engine
	"github.com/go-playground/validator/v10" // Custom rules
	"github.com/shopspring/decimal"          // Amounts
)

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	// Decimals validate as their string form so tags run on them instead of on the struct
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("money", validMoney)
}

// validMoney accepts amounts the store can hold exactly
func validMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && domain.CheckAmount(d) == ""
}
