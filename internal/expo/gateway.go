package expo

import "context"

// Gateway is the tenant backend boundary. All endpoints are scoped to the
// authenticated operator's tenant by the backend itself; the board passes no
// tenant identifier. The backend's state is authoritative: the board's local
// mutations are latency hiders that the next poll overwrites.
type Gateway interface {
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id OrderID, status string) error
	DeleteOrder(ctx context.Context, id OrderID) error
	ListWaiterCalls(ctx context.Context) ([]WaiterCall, error)
	UpdateWaiterCallStatus(ctx context.Context, id CallID, status string) error
}
