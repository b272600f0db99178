package rbac

// Permission names, grouped by resource.
const (
	PermOrdersView   = "orders.view"
	PermOrdersEdit   = "orders.edit"
	PermCouponsView  = "coupons.view"
	PermCouponsEdit  = "coupons.edit"
	PermPOView       = "purchase_orders.view"
	PermPOEdit       = "purchase_orders.edit"
	PermLedgerView   = "transactions.view"
	PermLedgerEdit   = "transactions.edit"
	PermShippingView = "shipping.view"
	PermShippingEdit = "shipping.edit"
	PermTechView     = "technicians.view"
	PermTechEdit     = "technicians.edit"
	PermCatalogView  = "catalog.view"
	PermCatalogEdit  = "catalog.edit"
)

// rolePermissions is the role→resource permission table checked per request.
var rolePermissions = map[string][]string{
	"admin": {
		PermOrdersView, PermOrdersEdit,
		PermCouponsView, PermCouponsEdit,
		PermPOView, PermPOEdit,
		PermLedgerView, PermLedgerEdit,
		PermShippingView, PermShippingEdit,
		PermTechView, PermTechEdit,
		PermCatalogView, PermCatalogEdit,
	},
	"manager": {
		PermOrdersView, PermOrdersEdit,
		PermCouponsView, PermCouponsEdit,
		PermPOView, PermPOEdit,
		PermLedgerView,
		PermShippingView, PermShippingEdit,
		PermTechView, PermTechEdit,
		PermCatalogView, PermCatalogEdit,
	},
	"staff": {
		PermOrdersView,
		PermPOView, PermPOEdit,
		PermShippingView,
		PermCatalogView,
	},
	"technician": {
		PermTechView,
	},
}

// PermissionsForRole returns the permissions granted to a role.
func PermissionsForRole(role string) []string {
	return rolePermissions[role]
}
