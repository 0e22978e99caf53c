// app/echoServer/jwtx/user.go
package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/AndriZhok/Library-Service-Project/service/policy"
)

func claims(c echo.Context) (jwt.MapClaims, error) {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok || tok == nil {
		return nil, errors.New("no jwt token in context")
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid jwt claims")
	}
	return mc, nil
}

// PrincipalFromContext resolves the authenticated caller from the verified
// token: subject id plus the staff flag. Token issuance lives elsewhere; this
// side only reads claims.
func PrincipalFromContext(c echo.Context) (policy.Principal, error) {
	mc, err := claims(c)
	if err != nil {
		return policy.Principal{}, err
	}

	f, ok := mc["sub"].(float64)
	if !ok {
		return policy.Principal{}, errors.New("sub missing in claims")
	}
	p := policy.Principal{UserID: int64(f)}
	if staff, ok := mc["is_staff"].(bool); ok {
		p.IsStaff = staff
	}
	return p, nil
}
