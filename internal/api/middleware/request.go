package middleware

import "github.com/labstack/echo/v4"

// echoRequest exposes an echo.Context as a ports.Request.
type echoRequest struct {
	c echo.Context
}

func (r echoRequest) Header(name string) string {
	return r.c.Request().Header.Get(name)
}

func (r echoRequest) Cookie(name string) (string, error) {
	ck, err := r.c.Cookie(name)
	if err != nil {
		return "", err
	}
	return ck.Value, nil
}
