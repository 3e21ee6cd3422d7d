package request

import (
	"github.com/google/uuid"
)

type FindOrders struct {
	UserId uuid.UUID `validate:"required"      json:"-"`
	Limit  int32     `validate:"gte=1,lte=100" json:"limit"`
	Offset int32     `validate:"gte=0"         json:"offset"`
}

type UpdateOrderStatus struct {
	Status string `validate:"required,oneof=PENDING DELIVERED" json:"status"`
}
