package web

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Azure/go-autorest/autorest/date"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Context wraps the gin context together with the request scoped
// context.Context that handlers pass down to services.
type Context struct {
	*gin.Context
	Ctx context.Context

	paramErrs []string
	queryErrs []string
}

// GetValues returns the request values stored by the App.
func (c *Context) GetValues() *Values {
	v, ok := c.Ctx.Value(KeyValues).(*Values)
	if !ok {
		return &Values{}
	}
	return v
}

// GetParam reads a path parameter converted to the requested kind. Conversion
// failures are collected and reported by ValidParam.
func (c *Context) GetParam(kind reflect.Kind, name string) interface{} {
	raw := c.Param(name)

	switch kind {
	case reflect.Int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.paramErrs = append(c.paramErrs, fmt.Sprintf("%s: must be integer", name))
			return 0
		}
		return v
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.paramErrs = append(c.paramErrs, fmt.Sprintf("%s: must be boolean", name))
			return false
		}
		return v
	default:
		if raw == "" {
			c.paramErrs = append(c.paramErrs, fmt.Sprintf("%s: required", name))
		}
		return raw
	}
}

// ValidParam returns a 400 error if any GetParam call failed.
func (c *Context) ValidParam() error {
	if len(c.paramErrs) == 0 {
		return nil
	}
	return NewRequestError(errors.New(strings.Join(c.paramErrs, "; ")), http.StatusBadRequest)
}

// GetQueryFunc reads an optional query parameter. It returns a typed pointer
// when the parameter is present and nil when it is absent.
func (c *Context) GetQueryFunc(kind reflect.Kind, name string) interface{} {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}

	switch kind {
	case reflect.Int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.queryErrs = append(c.queryErrs, fmt.Sprintf("%s: must be integer", name))
			return nil
		}
		return &v
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.queryErrs = append(c.queryErrs, fmt.Sprintf("%s: must be boolean", name))
			return nil
		}
		return &v
	default:
		return &raw
	}
}

// GetDateQuery reads an optional YYYY-MM-DD query parameter.
func (c *Context) GetDateQuery(name string) *date.Date {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}

	d, err := date.ParseDate(raw)
	if err != nil {
		c.queryErrs = append(c.queryErrs, fmt.Sprintf("%s: must be a date (YYYY-MM-DD)", name))
		return nil
	}
	return &d
}

// ValidQuery returns a 400 error if any GetQueryFunc call failed.
func (c *Context) ValidQuery() error {
	if len(c.queryErrs) == 0 {
		return nil
	}
	return NewRequestError(errors.New(strings.Join(c.queryErrs, "; ")), http.StatusBadRequest)
}

// BindFunc binds the request body into data and checks that the listed
// struct fields are not zero. Field names may be given one per argument or
// comma separated.
func (c *Context) BindFunc(data interface{}, requiredFields ...string) error {
	if err := c.ShouldBind(data); err != nil {
		return NewRequestError(errors.Wrap(err, "binding request"), http.StatusBadRequest)
	}

	return ValidateRequired(data, requiredFields...)
}

// ValidateRequired checks that the named fields of the struct pointed to by
// data hold non-zero values.
func ValidateRequired(data interface{}, requiredFields ...string) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	var missing []string
	for _, group := range requiredFields {
		for _, name := range strings.Split(group, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			f := v.FieldByName(name)
			if !f.IsValid() {
				continue
			}
			if f.IsZero() || (f.Kind() == reflect.Ptr && !f.IsNil() && f.Elem().IsZero()) {
				missing = append(missing, name)
			}
		}
	}

	if len(missing) > 0 {
		return NewRequestError(errors.Errorf("required fields: %s", strings.Join(missing, ", ")), http.StatusBadRequest)
	}

	return nil
}

// Respond converts a Go value to JSON and sends it to the client.
func (c *Context) Respond(data interface{}, statusCode int) error {
	c.GetValues().StatusCode = statusCode

	if statusCode == http.StatusNoContent {
		c.Status(statusCode)
		return nil
	}

	c.JSON(statusCode, data)
	return nil
}

// RespondError sends an error response back to the client.
func (c *Context) RespondError(err error) error {
	var webErr *Error
	if errors.As(err, &webErr) {
		body := map[string]interface{}{
			"error":  webErr.Error(),
			"status": false,
		}
		for k, v := range webErr.Fields {
			body[k] = v
		}
		return c.Respond(body, webErr.Status)
	}

	// Unexpected errors are reported without internal detail.
	if respErr := c.Respond(map[string]interface{}{
		"error":  http.StatusText(http.StatusInternalServerError),
		"status": false,
	}, http.StatusInternalServerError); respErr != nil {
		return respErr
	}

	return err
}
