package cache

const (
	KeyBook = "books:%s"
	KeyCart = "carts:%s"
)
