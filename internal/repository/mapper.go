package repository

import (
	bookResponse "github.com/Alturino/bookstore/book/pkg/response"
	cartResponse "github.com/Alturino/bookstore/cart/pkg/response"
	orderResponse "github.com/Alturino/bookstore/order/pkg/response"
	userResponse "github.com/Alturino/bookstore/user/pkg/response"
)

func (b Book) Response() bookResponse.Book {
	return bookResponse.Book{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Isbn:      b.Isbn,
		Price:     DecimalFromNumeric(b.Price),
		CreatedAt: b.CreatedAt.Time,
		UpdatedAt: b.UpdatedAt.Time,
	}
}

func (u User) Response() userResponse.User {
	return userResponse.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Time,
	}
}

func (r FindActiveCartItemsDetailRow) Response() cartResponse.CartItem {
	return cartResponse.CartItem{
		ID:        r.ID,
		BookID:    r.BookID,
		BookTitle: r.BookTitle,
		Quantity:  r.Quantity,
		Price:     DecimalFromNumeric(r.Price),
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

func (s ShoppingCart) Response(rows []FindActiveCartItemsDetailRow) cartResponse.Cart {
	items := make([]cartResponse.CartItem, len(rows))
	for i, row := range rows {
		items[i] = row.Response()
	}
	return cartResponse.Cart{
		UserID:    s.UserID,
		CartItems: items,
		CreatedAt: s.CreatedAt.Time,
		UpdatedAt: s.UpdatedAt.Time,
	}
}

func (i OrderItem) Response() orderResponse.OrderItem {
	return orderResponse.OrderItem{
		ID:        i.ID,
		OrderId:   i.OrderID,
		BookId:    i.BookID,
		Quantity:  i.Quantity,
		Price:     DecimalFromNumeric(i.Price),
		CreatedAt: i.CreatedAt.Time,
		UpdatedAt: i.UpdatedAt.Time,
	}
}

func (o Order) Response(orderItems []OrderItem) orderResponse.Order {
	items := make([]orderResponse.OrderItem, len(orderItems))
	for i, item := range orderItems {
		items[i] = item.Response()
	}
	return orderResponse.Order{
		ID:         o.ID,
		UserId:     o.UserID,
		Status:     o.Status,
		Total:      DecimalFromNumeric(o.Total),
		OrderItems: items,
		CreatedAt:  o.CreatedAt.Time,
		UpdatedAt:  o.UpdatedAt.Time,
	}
}
