package request

import (
	"github.com/shopspring/decimal"
)

type InsertBook struct {
	Title  string          `validate:"required"              json:"title"`
	Author string          `validate:"required"              json:"author"`
	Isbn   string          `validate:"required,min=10,max=13" json:"isbn"`
	Price  decimal.Decimal `validate:"required"              json:"price"`
}

type FindBooks struct {
	Limit  int32 `validate:"gte=1,lte=100" json:"limit"`
	Offset int32 `validate:"gte=0"         json:"offset"`
}
