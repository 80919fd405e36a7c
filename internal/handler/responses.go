package handler

import (
	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/service"
)

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		IsBlocked: u.IsBlocked,
		CreatedAt: u.CreatedAt,
	}
}

func toAuthResponse(s *service.Session) dto.AuthResponse {
	return dto.AuthResponse{
		ID:      s.User.ID.Hex(),
		Name:    s.User.Name,
		Email:   s.User.Email,
		IsAdmin: s.User.IsAdmin,
		Token:   s.Token,
	}
}

func toAddressResponse(a *model.Address) dto.AddressResponse {
	return dto.AddressResponse{
		ID:           a.ID.Hex(),
		Label:        a.Label,
		FullName:     a.FullName,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
		IsDefault:    a.IsDefault,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toAddressList(addresses []model.Address) []dto.AddressResponse {
	out := make([]dto.AddressResponse, 0, len(addresses))
	for i := range addresses {
		out = append(out, toAddressResponse(&addresses[i]))
	}
	return out
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	keywords := p.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return dto.ProductResponse{
		ID:           p.ID.Hex(),
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Price:        p.Price,
		Category:     string(p.Category),
		Images:       images,
		CountInStock: p.CountInStock,
		Keywords:     keywords,
		IsNewArrival: p.IsNewArrival,
		IsFeatured:   p.IsFeatured,
		Rating:       p.Rating,
		NumReviews:   p.NumReviews,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toProductList(products []model.Product) []dto.ProductResponse {
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	return out
}

func toCartResponse(v *service.CartView) dto.CartResponse {
	items := make([]dto.CartItemResponse, 0, len(v.Lines))
	for i := range v.Lines {
		items = append(items, dto.CartItemResponse{
			Product: toProductResponse(&v.Lines[i].Product),
			Qty:     v.Lines[i].Quantity,
		})
	}
	return dto.CartResponse{
		Items:         items,
		ItemsPrice:    v.Quote.ItemsPrice,
		TaxPrice:      v.Quote.TaxPrice,
		ShippingPrice: v.Quote.ShippingPrice,
		TotalPrice:    v.Quote.TotalPrice,
	}
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, dto.OrderItemResponse{
			Product: item.ProductID.Hex(),
			Name:    item.Name,
			Image:   item.Image,
			Price:   item.Price,
			Qty:     item.Quantity,
		})
	}

	resp := dto.OrderResponse{
		ID:         o.ID.Hex(),
		User:       o.UserID.Hex(),
		OrderItems: items,
		ShippingAddress: dto.ShippingAddressResponse{
			FullName:     o.ShippingAddress.FullName,
			Phone:        o.ShippingAddress.Phone,
			AddressLine1: o.ShippingAddress.AddressLine1,
			City:         o.ShippingAddress.City,
			State:        o.ShippingAddress.State,
			PostalCode:   o.ShippingAddress.PostalCode,
			Country:      o.ShippingAddress.Country,
		},
		PaymentMethod: string(o.PaymentMethod),
		ItemsPrice:    o.ItemsPrice,
		TaxPrice:      o.TaxPrice,
		ShippingPrice: o.ShippingPrice,
		TotalPrice:    o.TotalPrice,
		IsPaid:        o.IsPaid,
		PaidAt:        o.PaidAt,
		IsShipped:     o.IsShipped,
		ShippedAt:     o.ShippedAt,
		IsDelivered:   o.IsDelivered,
		DeliveredAt:   o.DeliveredAt,
		IsCancelled:   o.IsCancelled,
		CancelledAt:   o.CancelledAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.Owner != nil {
		resp.Owner = &dto.OwnerResponse{ID: o.Owner.ID.Hex(), Name: o.Owner.Name, Email: o.Owner.Email}
	}
	return resp
}

func toOrderList(orders []model.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out
}
