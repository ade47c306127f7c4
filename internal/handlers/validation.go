package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"blogapi/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// NewValidator returns a validator that reports JSON field names and
// understands models.Optional fields.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(optionalValue,
		models.Optional[string]{},
		models.Optional[int]{},
		models.Optional[[]string]{},
	)
	return v
}

type validationValuer interface {
	ValidationValue() interface{}
}

func optionalValue(field reflect.Value) interface{} {
	if o, ok := field.Interface().(validationValuer); ok {
		return o.ValidationValue()
	}
	return nil
}

// validationFailed writes a 400 response listing the failed fields.
func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return badRequest(c, "Validation failed", err)
	}
	errorMessages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		msg := fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		if e.Param() != "" {
			msg = fmt.Sprintf("Field '%s' failed on the '%s=%s' tag", e.Field(), e.Tag(), e.Param())
		}
		errorMessages[e.Field()] = msg
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	body := fiber.Map{"message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

func internalError(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// parseID reads the :id path parameter.
func parseID(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return 0, fmt.Errorf("id must be an integer")
	}
	return id, nil
}

// queryInt reads an integer query parameter, returning def when it is absent.
func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// parseListOptions reads and validates skip and limit.
func parseListOptions(c *fiber.Ctx, validate *validator.Validate) (models.ListOptions, error) {
	opts := models.DefaultListOptions()
	var err error
	if opts.Skip, err = queryInt(c, "skip", opts.Skip); err != nil {
		return opts, err
	}
	if opts.Limit, err = queryInt(c, "limit", opts.Limit); err != nil {
		return opts, err
	}
	return opts, validate.Struct(opts)
}

// respondQueryError writes a 400 for a bad list query.
func respondQueryError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return validationFailed(c, err)
	}
	return badRequest(c, "Invalid query parameters", err)
}
