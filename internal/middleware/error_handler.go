package middleware

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/consultation-service/internal/dto"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every error as {"success": false, "message": ...}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := dto.ErrorResponse{Message: err.Error()}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			body.Message = m
		case dto.ErrorResponse:
			body = m
		case error:
			body.Message = m.Error()
		default:
			body.Message = http.StatusText(code)
		}
		if he == echo.ErrNotFound {
			body.Message = "Route not found"
		}
	}
	body.Success = false

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, body)
}
