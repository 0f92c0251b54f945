package usecase

import (
	"fmt"

	"content-scheduler/domain/model"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateSchedule checks the schedule's caps and window bounds and that its timezone resolves.
func ValidateSchedule(s *model.Schedule) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: schedule %d: %v", model.ErrConfigurationGap, s.ID, err)
	}
	if _, err := loadLocation(s.Timezone); err != nil {
		return fmt.Errorf("%w: schedule %d: timezone %q: %v", model.ErrConfigurationGap, s.ID, s.Timezone, err)
	}
	return nil
}
