package presenter

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error codes carried alongside the HTTP status so callers can tell the
// not-found variants apart.
const (
	CodeValidationFailed    = "validation_failed"
	CodeOwnerNotFound       = "owner_not_found"
	CodeNotFound            = "not_found"
	CodeConstraintViolation = "constraint_violation"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func BadRequest(c echo.Context, err error) error {
	fmt.Println("Bad request:", err)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	fmt.Println("Bad request:", msg)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func ValidationFailed(c echo.Context, err error, fields []string) error {
	fmt.Println("Validation failed:", err)
	return c.JSON(http.StatusUnprocessableEntity, errorResponse{
		Error:  err.Error(),
		Code:   CodeValidationFailed,
		Fields: fields,
	})
}

func NotFound(c echo.Context, code, msg string) error {
	fmt.Println("Not found:", msg)
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg, Code: code})
}

func ConstraintViolation(c echo.Context, err error) error {
	fmt.Println("Constraint violation:", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{
		Error: err.Error(),
		Code:  CodeConstraintViolation,
	})
}

func InternalError(c echo.Context, err error) error {
	fmt.Println("Internal error:", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
