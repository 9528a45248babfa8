package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// corsAllowedHeaders are the request headers browsers may send cross-origin.
var corsAllowedHeaders = []string{
	echo.HeaderOrigin,
	"X-Requested-With",
	echo.HeaderContentType,
	echo.HeaderAccept,
	echo.HeaderAuthorization,
	echo.HeaderXForwardedFor,
	echo.HeaderXRealIP,
}

// CORS returns an Echo middleware that allows credentialed requests from origin.
func CORS(origin string) echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{origin},
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: corsAllowedHeaders,
	})
}
