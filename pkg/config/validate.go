package config

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/mindweave/pkg/errors"
)

var validate = validator.New()

// Validate checks the whole configuration, including the backend sections
// that the selected backends need.
func (c Config) Validate() error {
	if err := validateStruct("", c); err != nil {
		return err
	}
	if err := c.Layout.Config.Validate(); err != nil {
		return err
	}
	if c.Cache.Backend == "redis" {
		if err := validateStruct("cache.redis", c.Cache.Redis); err != nil {
			return err
		}
	}
	if c.Store.Backend == "mongo" {
		if err := validateStruct("store.mongo", c.Store.Mongo); err != nil {
			return err
		}
	}
	return nil
}

func validateStruct(section string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate config")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = formatFieldError(section, fe)
	}
	return errors.New(errors.ErrCodeInvalidConfig, "%s", strings.Join(msgs, "; "))
}

// formatFieldError renders a field error with the TOML-style field path.
func formatFieldError(section string, fe validator.FieldError) string {
	field := strings.ToLower(fe.Namespace())
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:] // drop the root type name
	}
	if section != "" {
		field = section + "." + field
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
