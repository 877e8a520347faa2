package rbac

import "strings"

// Role is a high-level permission grouping. The role set is fixed: accounts
// are created with one of these and the workflow rules key off them directly.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RolePurchaser  Role = "purchaser"
	RoleUser       Role = "user"
)

// ParseRole normalizes a stored role string. Unknown values map to RoleUser,
// the least privileged role.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleSuperadmin:
		return RoleSuperadmin
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	case RolePurchaser:
		return RolePurchaser
	default:
		return RoleUser
	}
}

// IsPrivileged reports whether the role sees all tasks and may create them.
// Plain users only see work assigned to them.
func (r Role) IsPrivileged() bool {
	return r != RoleUser
}

// CanManageOrders reports whether the role may approve or cancel orders.
func (r Role) CanManageOrders() bool {
	return r == RoleManager || r == RoleSuperadmin
}

// Atomic capabilities checked by route middleware.
const (
	PermOrdersView    = "orders.view"
	PermOrdersCreate  = "orders.create"
	PermOrdersApprove = "orders.approve"
	PermOrdersAdvance = "orders.advance"
	PermOrdersCancel  = "orders.cancel"
	PermOrdersInvoice = "orders.invoice"
	PermTasksView     = "tasks.view"
	PermTasksCreate   = "tasks.create"
	PermTasksEdit     = "tasks.edit"
	PermTasksDelete   = "tasks.delete"
	PermDeliveryView  = "delivery.view"
	PermDeliveryEdit  = "delivery.edit"
	PermMasterView    = "masterdata.view"
)

var rolePermissions = map[Role][]string{
	RoleSuperadmin: {
		PermOrdersView, PermOrdersCreate, PermOrdersApprove, PermOrdersAdvance,
		PermOrdersCancel, PermOrdersInvoice, PermTasksView, PermTasksCreate,
		PermTasksEdit, PermTasksDelete, PermDeliveryView, PermDeliveryEdit,
		PermMasterView,
	},
	RoleAdmin: {
		PermOrdersView, PermOrdersCreate, PermTasksView, PermTasksCreate,
		PermTasksEdit, PermDeliveryView, PermDeliveryEdit, PermMasterView,
	},
	RoleManager: {
		PermOrdersView, PermOrdersCreate, PermOrdersApprove, PermOrdersCancel,
		PermOrdersInvoice, PermTasksView, PermTasksCreate, PermTasksEdit,
		PermTasksDelete, PermDeliveryView, PermMasterView,
	},
	RolePurchaser: {
		PermOrdersView, PermOrdersCreate, PermTasksView, PermTasksCreate,
		PermTasksEdit, PermDeliveryView, PermMasterView,
	},
	RoleUser: {
		PermOrdersView, PermOrdersAdvance, PermTasksView, PermTasksEdit,
		PermDeliveryView, PermDeliveryEdit, PermMasterView,
	},
}

// Permissions returns the capability set granted to a role.
func Permissions(role Role) []string {
	return rolePermissions[role]
}

// HasPermission reports whether role grants the named permission.
// Superadmin implicitly holds everything.
func HasPermission(role Role, perm string) bool {
	if role == RoleSuperadmin {
		return true
	}
	for _, granted := range rolePermissions[role] {
		if granted == perm {
			return true
		}
	}
	return false
}
