package domain

// TransitionPolicy решает, какие смены статуса допустимы для AdvanceStatus.
//
// AllowArbitraryTransition сохраняет прежнее поведение: персонал может
// выставить любой известный статус. Без него действует линейный граф
// pending → accepted → preparing → ready → completed плюс отмена из
// pending/accepted, а завершённые статусы финальны.
type TransitionPolicy struct {
	AllowArbitraryTransition bool
}

// PermissiveTransitions is the default policy.
var PermissiveTransitions = TransitionPolicy{AllowArbitraryTransition: true}

// StrictTransitions enforces the linear graph.
var StrictTransitions = TransitionPolicy{AllowArbitraryTransition: false}

var nextStatus = map[OrderStatus]OrderStatus{
	OrderStatusPending:   OrderStatusAccepted,
	OrderStatusAccepted:  OrderStatusPreparing,
	OrderStatusPreparing: OrderStatusReady,
	OrderStatusReady:     OrderStatusCompleted,
}

// Next returns the following happy-path status, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	n, ok := nextStatus[s]
	return n, ok
}

// Allows reports whether from → to is a legal transition under the policy.
func (p TransitionPolicy) Allows(from, to OrderStatus) bool {
	if !to.Valid() {
		return false
	}
	if p.AllowArbitraryTransition {
		return true
	}
	if from.Terminal() {
		return false
	}
	if to == OrderStatusCancelled {
		return from.Cancellable()
	}
	n, ok := from.Next()
	return ok && n == to
}
