package salesorders

import (
	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/models"
)

const (
	ActionSubmit         = "submit"
	ActionConfirm        = "confirm"
	ActionProcess        = "process"
	ActionShip           = "ship"
	ActionShipPartial    = "ship_partial"
	ActionDeliver        = "deliver"
	ActionDeliverPartial = "deliver_partial"
	ActionComplete       = "complete"
	ActionCancel         = "cancel"
	ActionReturn         = "return"
)

var (
	shippable   = []models.SalesOrderStatus{models.OrderConfirmed, models.OrderProcessing, models.OrderPartiallyShipped}
	deliverable = []models.SalesOrderStatus{models.OrderShipped, models.OrderPartiallyShipped, models.OrderPartiallyDelivered}
)

// Machine is the sales order lattice. Completed, cancelled and returned are final.
var Machine = lifecycle.New("sales order", map[string]lifecycle.Transition[models.SalesOrderStatus]{
	ActionSubmit:         {From: []models.SalesOrderStatus{models.OrderDraft}, To: models.OrderPending},
	ActionConfirm:        {From: []models.SalesOrderStatus{models.OrderDraft, models.OrderPending}, To: models.OrderConfirmed},
	ActionProcess:        {From: []models.SalesOrderStatus{models.OrderConfirmed}, To: models.OrderProcessing},
	ActionShip:           {From: shippable, To: models.OrderShipped},
	ActionShipPartial:    {From: shippable, To: models.OrderPartiallyShipped},
	ActionDeliver:        {From: deliverable, To: models.OrderDelivered},
	ActionDeliverPartial: {From: deliverable, To: models.OrderPartiallyDelivered},
	ActionComplete:       {From: []models.SalesOrderStatus{models.OrderDelivered}, To: models.OrderCompleted},
	ActionCancel: {From: []models.SalesOrderStatus{
		models.OrderDraft, models.OrderPending, models.OrderConfirmed, models.OrderProcessing,
		models.OrderPartiallyShipped, models.OrderShipped, models.OrderPartiallyDelivered, models.OrderDelivered,
	}, To: models.OrderCancelled},
	ActionReturn: {From: []models.SalesOrderStatus{models.OrderDelivered, models.OrderCompleted}, To: models.OrderReturned},
}, models.OrderDraft, models.OrderPending)
