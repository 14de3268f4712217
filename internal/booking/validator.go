package booking

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/robertarktes/party-bookings/internal/domain"
)

type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator(slots []string) (*requestValidator, error) {
	v := validator.New()
	err := v.RegisterValidation("slot", func(fl validator.FieldLevel) bool {
		return domain.ContainsSlot(slots, fl.Field().String())
	})
	if err != nil {
		return nil, errors.Wrap(err, "register slot validation")
	}
	return &requestValidator{validate: v}, nil
}

func (r *requestValidator) check(nb domain.NewBooking) error {
	err := r.validate.Struct(nb)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate booking")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.Wrap(domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "datetime":
		return field + " must be YYYY-MM-DD"
	case "slot":
		return fmt.Sprintf("%s %q is not an offered slot", field, fe.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
