package otel

import (
	"go.opentelemetry.io/otel"
)

var Tracer = otel.Tracer("bookstore.cart")
