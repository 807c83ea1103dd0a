package service

import (
	"encoding/hex"

	"github.com/google/uuid"

	"widget-shop/internal/model"
)

// OrderNumberGenerator produces candidate order numbers. Generation is
// pure; uniqueness is enforced by the order service against the store, so
// implementations may collide occasionally without harm.
type OrderNumberGenerator interface {
	Generate() string
}

// NewOrderNumberGenerator returns the default generator: the leading
// OrderNumberLength characters of a random UUID's hex form.
func NewOrderNumberGenerator() OrderNumberGenerator {
	return hexOrderNumberGenerator{}
}

type hexOrderNumberGenerator struct{}

func (hexOrderNumberGenerator) Generate() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:model.OrderNumberLength]
}
