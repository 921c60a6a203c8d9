// Package ledger is the authoritative owner of orders: creation with
// server-computed totals and price snapshots, and status transitions applied
// as one atomic unit. Handlers never write order rows directly.
package ledger

import (
	"context"
	"sync"

	"food-ordering-api/apperrors"
	"food-ordering-api/events"
	"food-ordering-api/models"
	"food-ordering-api/statemachine"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor is the authenticated identity a request carries into the core. The
// ledger holds no ambient session; every call receives its own actor.
type Actor struct {
	UserID uint
	Role   models.UserRole
}

type CreateOrderItem struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,min=1"`
}

type CreateOrderInput struct {
	RestaurantID    uint              `json:"restaurant_id" binding:"required"`
	DeliveryAddress string            `json:"delivery_address" binding:"required"`
	IdempotencyKey  string            `json:"idempotency_key"`
	Items           []CreateOrderItem `json:"items" binding:"required,min=1,dive"`
}

// perOrderLocks serializes transitions on the same order. Readers never take
// these; only writers do, so high-frequency polling cannot starve them.
var perOrderLocks sync.Map // order ID -> *sync.Mutex

func lockOrder(id uint) *sync.Mutex {
	mu, _ := perOrderLocks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// CreateOrder validates the cart against the current catalog, snapshots item
// names and prices, computes the total server-side and persists the order in
// state pending. A replayed idempotency key returns the stored order instead
// of creating a duplicate.
func CreateOrder(db *gorm.DB, actor Actor, in CreateOrderInput) (*models.Order, error) {
	if actor.Role != models.RoleCustomer {
		return nil, apperrors.ErrForbidden.WithMessagef("only customers can place orders")
	}
	if len(in.Items) == 0 {
		return nil, apperrors.ErrValidation.WithMessagef("order must contain at least one item")
	}
	if in.DeliveryAddress == "" {
		return nil, apperrors.ErrValidation.WithMessagef("delivery address is required")
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, apperrors.ErrValidation.WithMessagef("item quantity must be at least 1")
		}
	}

	if in.IdempotencyKey != "" {
		var existing models.Order
		err := db.Preload("Items").Where("idempotency_key = ?", in.IdempotencyKey).First(&existing).Error
		switch {
		case err == nil:
			if existing.CustomerID != actor.UserID {
				return nil, apperrors.ErrValidation.WithMessagef("idempotency key already used")
			}
			return &existing, nil
		case err != gorm.ErrRecordNotFound:
			return nil, storeFault(err)
		}
	} else {
		in.IdempotencyKey = uuid.NewString()
	}

	var restaurant models.Restaurant
	if err := db.First(&restaurant, in.RestaurantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrNotFound.WithMessagef("restaurant not found")
		}
		return nil, storeFault(err)
	}

	// Snapshot current catalog prices; later price changes never touch this
	// order.
	var orderItems []models.OrderItem
	var total float64
	for _, reqItem := range in.Items {
		var menuItem models.MenuItem
		if err := db.First(&menuItem, reqItem.MenuItemID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, apperrors.ErrNotFound.WithMessagef("menu item %d not found", reqItem.MenuItemID)
			}
			return nil, storeFault(err)
		}
		if menuItem.RestaurantID != in.RestaurantID {
			return nil, apperrors.ErrValidation.WithMessagef("menu item %q does not belong to this restaurant", menuItem.Name)
		}
		total += menuItem.Price * float64(reqItem.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   reqItem.Quantity,
			Price:      menuItem.Price,
		})
	}

	order := models.Order{
		CustomerID:      actor.UserID,
		RestaurantID:    in.RestaurantID,
		Status:          models.StatusPending,
		TotalAmount:     total,
		DeliveryAddress: in.DeliveryAddress,
		IdempotencyKey:  in.IdempotencyKey,
		Items:           orderItems,
	}

	err := withRetry(func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			history := models.OrderStatusHistory{
				OrderID:   order.ID,
				ToStatus:  models.StatusPending,
				ChangedBy: actor.UserID,
				Note:      "order placed",
			}
			return tx.Create(&history).Error
		})
	})
	if err != nil {
		return nil, storeFault(err)
	}

	events.Emit(context.Background(), events.OrderEvent{
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		RestaurantID: order.RestaurantID,
		Status:       order.Status,
		TotalAmount:  order.TotalAmount,
		OccurredAt:   order.CreatedAt,
	})

	if err := db.Preload("Items").Preload("Restaurant").First(&order, order.ID).Error; err != nil {
		return nil, storeFault(err)
	}
	return &order, nil
}

// UpdateStatus applies one transition from the state machine. The
// precondition check and the write happen under the order's lock and through
// a conditional UPDATE, so two racing calls serialize: one observes the
// pre-transition state, the other the post-transition state.
func UpdateStatus(db *gorm.DB, actor Actor, orderID uint, target models.OrderStatus, note string) (*models.Order, error) {
	mu := lockOrder(orderID)
	mu.Lock()
	defer mu.Unlock()

	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrNotFound.WithMessagef("order not found")
		}
		return nil, storeFault(err)
	}

	if err := statemachine.CanTransition(order.Status, target, actor.Role); err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleRestaurant:
		var restaurant models.Restaurant
		if err := db.Where("id = ? AND owner_id = ?", order.RestaurantID, actor.UserID).First(&restaurant).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, apperrors.ErrForbidden.WithMessagef("this order does not belong to your restaurant")
			}
			return nil, storeFault(err)
		}
	case models.RoleDelivery:
		if target == models.StatusAccepted {
			if order.DeliveryGuyID != nil {
				return nil, apperrors.ErrAlreadyClaimed
			}
		} else if order.DeliveryGuyID == nil || *order.DeliveryGuyID != actor.UserID {
			return nil, apperrors.ErrForbidden.WithMessagef("you are not the assigned courier for this order")
		}
	}

	prev := order.Status
	err := withRetry(func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			// Test-and-set: the WHERE clause re-checks the precondition so a
			// stale read can never overwrite a concurrent transition.
			q := tx.Model(&models.Order{}).Where("id = ? AND status = ?", orderID, prev)
			updates := map[string]interface{}{"status": target}
			if target == models.StatusAccepted {
				q = q.Where("delivery_guy_id IS NULL")
				updates["delivery_guy_id"] = actor.UserID
			}
			res := q.Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errRaced
			}
			history := models.OrderStatusHistory{
				OrderID:    orderID,
				FromStatus: prev,
				ToStatus:   target,
				ChangedBy:  actor.UserID,
				Note:       note,
			}
			return tx.Create(&history).Error
		})
	})
	if err == errRaced {
		// Someone else moved the order between our read and write. Re-read
		// and report the precise failure.
		if dbErr := db.First(&order, orderID).Error; dbErr != nil {
			return nil, storeFault(dbErr)
		}
		if target == models.StatusAccepted && order.DeliveryGuyID != nil {
			return nil, apperrors.ErrAlreadyClaimed
		}
		return nil, statemachine.CanTransition(order.Status, target, actor.Role)
	}
	if err != nil {
		return nil, storeFault(err)
	}

	if err := db.Preload("Items").Preload("Restaurant").Preload("Customer").First(&order, orderID).Error; err != nil {
		return nil, storeFault(err)
	}

	events.Emit(context.Background(), events.OrderEvent{
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		RestaurantID:  order.RestaurantID,
		DeliveryGuyID: order.DeliveryGuyID,
		FromStatus:    prev,
		Status:        order.Status,
		TotalAmount:   order.TotalAmount,
		OccurredAt:    order.UpdatedAt,
	})
	return &order, nil
}

// ListOrders returns the role-scoped projection of the ledger: admin sees
// all, a restaurant owner their restaurants' orders, a courier orders
// assigned to them, a customer their own.
func ListOrders(db *gorm.DB, actor Actor) ([]models.Order, error) {
	query := db.Preload("Items").Preload("Restaurant").Preload("Customer").Preload("DeliveryGuy")

	switch actor.Role {
	case models.RoleAdmin:
		// unrestricted
	case models.RoleRestaurant:
		query = query.Where("restaurant_id IN (?)",
			db.Model(&models.Restaurant{}).Select("id").Where("owner_id = ?", actor.UserID))
	case models.RoleDelivery:
		query = query.Where("delivery_guy_id = ?", actor.UserID)
	default:
		query = query.Where("customer_id = ?", actor.UserID)
	}

	var orders []models.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, storeFault(err)
	}
	return orders, nil
}

// ListAvailableForDelivery returns ready, unclaimed orders any courier may
// accept.
func ListAvailableForDelivery(db *gorm.DB) ([]models.Order, error) {
	var orders []models.Order
	err := db.Preload("Items").Preload("Restaurant").Preload("Customer").
		Where("status = ? AND delivery_guy_id IS NULL", models.StatusReady).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, storeFault(err)
	}
	return orders, nil
}
