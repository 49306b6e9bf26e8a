package session

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/storefront/internal/model"
)

// Claims is the identity carried in the token payload.
type Claims struct {
	DNI     model.DNI
	Email   string
	Name    string
	Surname string
}

var dniClaims = []string{"dni", "sub", "userId", "id"}

// DecodeToken reads the payload of a JWT without checking its signature.
// The identifier is taken from dni, sub, userId or id, in that order.
func DecodeToken(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}
	var c Claims
	for _, k := range dniClaims {
		if d, ok := claimDNI(mc[k]); ok {
			c.DNI = d
			break
		}
	}
	c.Email, _ = mc["email"].(string)
	c.Name, _ = mc["nombre"].(string)
	c.Surname, _ = mc["apellido"].(string)
	return c, nil
}

func claimDNI(v any) (model.DNI, bool) {
	switch x := v.(type) {
	case float64:
		d := model.DNI(int64(x))
		return d, d.Valid() && float64(int64(x)) == x
	case json.Number:
		d, err := model.ParseDNI(x.String())
		return d, err == nil && d.Valid()
	case string:
		if _, err := strconv.ParseFloat(x, 64); err != nil {
			return 0, false
		}
		d, err := model.ParseDNI(x)
		return d, err == nil && d.Valid()
	}
	return 0, false
}
