package service

import (
	"time"

	"github.com/flicky/storefront-api/internal/model"
)

type Transition string

const (
	TransitionShip    Transition = "ship"
	TransitionDeliver Transition = "deliver"
	TransitionCancel  Transition = "cancel"
)

// apply returns the status after t, or the conflict that forbids it.
// Delivered and cancelled never coexist.
func (t Transition) apply(s model.OrderStatus, now time.Time) (model.OrderStatus, error) {
	switch t {
	case TransitionShip:
		if s.IsCancelled {
			return s, ErrShipCancelled
		}
		if s.IsShipped {
			return s, ErrAlreadyShipped
		}
		s.IsShipped, s.ShippedAt = true, &now
	case TransitionDeliver:
		if s.IsCancelled {
			return s, ErrDeliverCancelled
		}
		if !s.IsShipped {
			return s, ErrNotShipped
		}
		if s.IsDelivered {
			return s, ErrAlreadyDelivered
		}
		s.IsDelivered, s.DeliveredAt = true, &now
	case TransitionCancel:
		if s.IsDelivered {
			return s, ErrCancelDelivered
		}
		if s.IsCancelled {
			return s, ErrAlreadyCancelled
		}
		s.IsCancelled, s.CancelledAt = true, &now
	default:
		return s, validationError("unknown transition " + string(t))
	}
	return s, nil
}
