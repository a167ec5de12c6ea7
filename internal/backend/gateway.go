// Package backend talks to the tenant backend's REST API on behalf of the
// board. It implements expo.Gateway.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"

	"github.com/expeditehq/expedite/internal/expo"
)

// Gateway wraps the tenant backend API.
type Gateway struct {
	client *apt.ServiceClient
}

func NewGateway(client *apt.ServiceClient) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) ListOrders(ctx context.Context) ([]expo.Order, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("backend client not configured")
	}

	resp, err := g.client.Request(ctx, "GET", "/orders", nil)
	if err != nil {
		return nil, err
	}

	var orders []expo.Order
	if err := decodeSuccessResponse(resp, &orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (g *Gateway) UpdateOrderStatus(ctx context.Context, id expo.OrderID, status string) error {
	if g == nil || g.client == nil {
		return fmt.Errorf("backend client not configured")
	}
	if status == "" {
		return fmt.Errorf("missing order status")
	}

	body := map[string]string{"id": id.String(), "status": status}
	_, err := g.client.Request(ctx, "PATCH", "/orders", body)
	return err
}

func (g *Gateway) DeleteOrder(ctx context.Context, id expo.OrderID) error {
	if g == nil || g.client == nil {
		return fmt.Errorf("backend client not configured")
	}

	path := fmt.Sprintf("/orders?id=%s", id.String())
	_, err := g.client.Request(ctx, "DELETE", path, nil)
	return err
}

func (g *Gateway) ListWaiterCalls(ctx context.Context) ([]expo.WaiterCall, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("backend client not configured")
	}

	resp, err := g.client.Request(ctx, "GET", "/waiter-calls", nil)
	if err != nil {
		return nil, err
	}

	var calls []expo.WaiterCall
	if err := decodeSuccessResponse(resp, &calls); err != nil {
		return nil, err
	}

	return calls, nil
}

func (g *Gateway) UpdateWaiterCallStatus(ctx context.Context, id expo.CallID, status string) error {
	if g == nil || g.client == nil {
		return fmt.Errorf("backend client not configured")
	}
	if status == "" {
		return fmt.Errorf("missing waiter call status")
	}

	body := map[string]string{"id": id.String(), "status": status}
	_, err := g.client.Request(ctx, "PATCH", "/waiter-calls", body)
	return err
}

// decodeSuccessResponse copies the dynamic response payload into dest.
func decodeSuccessResponse(resp *apt.SuccessResponse, dest interface{}) error {
	if resp == nil {
		return errors.New("nil success response")
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return err
	}

	return nil
}
