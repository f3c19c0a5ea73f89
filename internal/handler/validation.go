package handler

import (
	"fmt"

	"github.com/ParkEase/service-parking/internal/domain/vehicle"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the custom binding tags used by request structs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("vehicletype", func(fl validator.FieldLevel) bool {
		_, err := vehicle.Parse(fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("register vehicletype: %w", err)
	}
	if err := v.RegisterValidation("slotvehicletype", func(fl validator.FieldLevel) bool {
		_, err := vehicle.ParseForSlot(fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("register slotvehicletype: %w", err)
	}
	return nil
}
