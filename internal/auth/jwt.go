package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Modules carries the per-user permission flags embedded in the token.
// Each flag gates access to one dashboard and its notification channel.
type Modules struct {
	CashierManage         bool `json:"cashiermanage"`
	SpecialDiscountManage bool `json:"specialdiscountmanage"`
	BarManage             bool `json:"barmanage"`
	KitchenManage         bool `json:"kitchenmanage"`
	ShishaManage          bool `json:"shishamanage"`
	ManageUserOrders      bool `json:"manageuserorders"`
	OrderManage           bool `json:"ordermanage"`
}

type Claims struct {
	Username string  `json:"username"`
	Role     string  `json:"userrole"`
	Modules  Modules `json:"modules"`
	jwt.RegisteredClaims
}

func GenerateToken(secret, username, role string, modules Modules) (string, error) {
	claims := Claims{
		Username: username,
		Role:     role,
		Modules:  modules,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
