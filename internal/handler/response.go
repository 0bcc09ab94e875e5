package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pettag-service/internal/service"
	"pettag-service/pkg/config"
)

// Package-level collaborators, wired once from main. Plain CRUD handlers go
// straight to the database; tag lifecycle handlers delegate to the engine.
var (
	engine   *service.Lifecycle
	notifier service.Dispatcher
	appCfg   *config.Config
)

// Init wires the lifecycle engine and its collaborators into the handler package
func Init(e *service.Lifecycle, n service.Dispatcher, cfg *config.Config) {
	engine = e
	notifier = n
	appCfg = cfg
}

// ErrorBody is the error half of the response envelope
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries pagination metadata on list responses
type Meta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

// Envelope is the uniform response shape for every endpoint
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// OK writes a successful envelope
func OK(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// OKList writes a successful envelope with pagination metadata
func OKList(c echo.Context, data interface{}, meta Meta) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Meta: &meta})
}

// Fail maps a domain error onto the envelope; unknown errors become a
// generic 500 so internals never leak to the caller.
func Fail(c echo.Context, err error) error {
	var domainErr *service.Error
	if errors.As(err, &domainErr) {
		return c.JSON(domainErr.Status, Envelope{
			Success: false,
			Error:   &ErrorBody{Code: domainErr.Code, Message: domainErr.Message},
		})
	}
	return c.JSON(http.StatusInternalServerError, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: "INTERNAL", Message: "internal server error"},
	})
}

// BadRequest writes a request-validation failure
func BadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: "INVALID_REQUEST", Message: message},
	})
}

// pagination parses page/per_page query params with sane bounds
func pagination(c echo.Context) (page, perPage int) {
	page = intQueryParam(c, "page", 1)
	perPage = intQueryParam(c, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func intQueryParam(c echo.Context, name string, defaultValue int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

