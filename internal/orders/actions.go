package orders

import "github.com/orderdesk/orderdesk/internal/rbac"

// Action identifies a workflow control offered on an order row.
type Action string

const (
	ActionApprove         Action = "approve"
	ActionCancel          Action = "cancel"
	ActionCreateTask      Action = "create_task"
	ActionCreateDO        Action = "create_do"
	ActionViewDO          Action = "view_do"
	ActionSwitchDO        Action = "switch_do"
	ActionMarkShipping    Action = "mark_shipping"
	ActionMarkDelivered   Action = "mark_delivered"
	ActionComplete        Action = "complete"
	ActionGenerateInvoice Action = "generate_invoice"

	// ActionCreateDOOverride is the dropdown variant offered to role user on
	// processing orders whose tasks are not all complete. It contradicts the
	// nominal gate but is preserved intentionally: the original console
	// offered it and product has not ruled whether it is an admin override
	// or a defect.
	ActionCreateDOOverride Action = "create_do_override"
)

// RowState is the input to the action table: everything the gate needs to
// know about one order row and the viewer.
type RowState struct {
	Status            Status
	Role              rbac.Role
	DOCreated         bool
	TasksAllCompleted bool
	HasInvoice        bool
}

// AvailableActions returns the ordered action list for a row. It is a pure
// function of RowState so it can be tested apart from any HTTP rendering,
// and list responses embed its output so every consumer shares one gate.
func AvailableActions(row RowState) []Action {
	switch row.Status {
	case StatusPending:
		if row.Role.CanManageOrders() {
			return []Action{ActionApprove, ActionCancel}
		}
	case StatusProcessing:
		if row.Role.CanManageOrders() {
			return []Action{ActionCreateTask, ActionCancel}
		}
		if row.Role == rbac.RoleUser {
			if !row.DOCreated {
				if row.TasksAllCompleted {
					return []Action{ActionCreateDO}
				}
				return []Action{ActionCreateDOOverride}
			}
			return []Action{ActionViewDO, ActionSwitchDO, ActionMarkShipping}
		}
	case StatusShipping:
		if row.Role == rbac.RoleUser {
			return []Action{ActionMarkDelivered}
		}
	case StatusDelivered:
		if row.Role == rbac.RoleUser {
			return []Action{ActionComplete, ActionViewDO, ActionSwitchDO}
		}
		if row.Role.CanManageOrders() && !row.HasInvoice {
			return []Action{ActionGenerateInvoice}
		}
	case StatusCompleted:
		if row.DOCreated {
			return []Action{ActionViewDO}
		}
	case StatusCancelled:
		// Rendered as a label only.
	}
	return nil
}
