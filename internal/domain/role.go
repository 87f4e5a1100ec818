package domain

import "strings"

type Role int

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleStock
	RoleSeller
)

type Capability int

const (
	CapCreateSale Capability = iota
	CapViewReceipt
	CapOverrideCreditLimit
	CapViewStock
	CapAdjustStock
	CapAdjustStockNegative
	CapManageCatalog
	CapManageCredit
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		CapCreateSale, CapViewReceipt, CapOverrideCreditLimit, CapViewStock,
		CapAdjustStock, CapAdjustStockNegative, CapManageCatalog, CapManageCredit,
	},
	RoleStock:  {CapViewStock, CapAdjustStock, CapManageCatalog},
	RoleSeller: {CapCreateSale, CapViewReceipt, CapViewStock, CapManageCredit},
}

// ParseRole accepts the canonical names and the Spanish labels the
// back office uses.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "administrador":
		return RoleAdmin
	case "stock", "deposito":
		return RoleStock
	case "seller", "vendedor":
		return RoleSeller
	default:
		return RoleUnknown
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleStock:
		return "stock"
	case RoleSeller:
		return "seller"
	default:
		return "unknown"
	}
}

func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// Operator is the identity attached to every request by the gateway.
type Operator struct {
	ID   int
	Name string
	Role Role
}

func (o Operator) Can(c Capability) bool {
	return o.Role.Can(c)
}
