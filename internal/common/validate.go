package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindJSON decodes the request body into dst and validates it against the
// struct's validate tags. Failures are reported as VALIDATION_ERROR app errors
// so handlers can surface them uniformly.
func BindJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return NewAppError("VALIDATION_ERROR", "invalid request payload", http.StatusBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
			}
			return &AppError{
				Code:       "VALIDATION_ERROR",
				Message:    "request validation failed",
				HTTPStatus: http.StatusBadRequest,
				Err:        err,
				Details:    map[string]any{"fields": strings.Join(fields, ", ")},
			}
		}
		return NewAppError("VALIDATION_ERROR", "request validation failed", http.StatusBadRequest, err)
	}
	return nil
}
