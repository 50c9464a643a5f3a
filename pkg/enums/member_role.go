package enums

import "fmt"

// MemberRole scopes what an authenticated user may do.
type MemberRole string

const (
	MemberRoleShopper  MemberRole = "shopper"
	MemberRoleMerchant MemberRole = "merchant"
	MemberRoleAdmin    MemberRole = "admin"
)

var validMemberRoles = []MemberRole{
	MemberRoleShopper,
	MemberRoleMerchant,
	MemberRoleAdmin,
}

// String implements fmt.Stringer.
func (m MemberRole) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberRole.
func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// CanManageOrders reports whether the role may mutate order status.
func (m MemberRole) CanManageOrders() bool {
	return m == MemberRoleMerchant || m == MemberRoleAdmin
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
