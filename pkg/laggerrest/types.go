package laggerrest

import (
	"encoding/json"

	"execution-core/internal/domain"
)

// envelope is the venue's outer response wrapper. Result is decoded lazily
// per-call since its shape varies by endpoint; callers must never assume
// Result is populated unless Success is true.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *venueError     `json:"error"`
}

type venueError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// orderRequestBody is the wire body for POST /orders.
type orderRequestBody struct {
	ProductID               int      `json:"product_id"`
	Size                    float64  `json:"size"`
	Side                    string   `json:"side"`
	OrderType               string   `json:"order_type"`
	LimitPrice              *float64 `json:"limit_price,omitempty"`
	StopPrice               *float64 `json:"stop_price,omitempty"`
	StopOrderType           string   `json:"stop_order_type,omitempty"`
	TrailAmount             *float64 `json:"trail_amount,omitempty"`
	StopTriggerMethod       string   `json:"stop_trigger_method,omitempty"`
	ReduceOnly              bool     `json:"reduce_only,omitempty"`
	PostOnly                bool     `json:"post_only,omitempty"`
	TimeInForce             string   `json:"time_in_force,omitempty"`
	ClientOrderID           string   `json:"client_order_id"`
	BracketTakeProfitPrice  *float64 `json:"bracket_take_profit_price,omitempty"`
	BracketStopLossPrice    *float64 `json:"bracket_stop_loss_price,omitempty"`
	BracketTrailAmount      *float64 `json:"bracket_trail_amount,omitempty"`
	BracketStopTriggerMethod string  `json:"bracket_stop_trigger_method,omitempty"`
}

// orderResponseResult is the "result" shape of a successful /orders POST.
type orderResponseResult struct {
	ID            string `json:"id"`
	ClientOrderID string `json:"client_order_id"`
	State         string `json:"state"`
}

// wireOrder is one entry of GET /orders or DELETE /orders/batch responses.
type wireOrder struct {
	ID                 string `json:"id"`
	ClientOrderID      string `json:"client_order_id"`
	State               string `json:"state"`
	AvgFillPrice        string `json:"avg_fill_price"`
	Side                string `json:"side"`
	ProductID           int    `json:"product_id"`
	OrderType           string `json:"order_type"`
	ParentClientOrderID string `json:"parent_client_order_id"`
}

// wirePosition is one entry of GET /positions/margined.
type wirePosition struct {
	ProductSymbol string  `json:"product_symbol"`
	Size          float64 `json:"size"`
	EntryPrice    float64 `json:"entry_price"`
}

func toWireSide(s domain.Side) string {
	if s == domain.SideBuy {
		return "buy"
	}
	return "sell"
}

func toWireOrderType(k domain.OrderKind) string {
	switch k {
	case domain.OrderLimit:
		return "limit_order"
	case domain.OrderStopMarket, domain.OrderTrailingStop:
		return "stop_order"
	default:
		return "market_order"
	}
}

func toWireTriggerMethod(t domain.TriggerType) string {
	if t == domain.TriggerMark {
		return "mark_price"
	}
	return "last_traded_price"
}

func toWireState(s string) domain.OrderState {
	switch s {
	case "open", "pending", "partially_filled":
		return domain.StateWorking
	case "filled":
		return domain.StateFilled
	case "cancelled":
		return domain.StateCancelled
	case "rejected":
		return domain.StateRejected
	default:
		return domain.StatePending
	}
}
