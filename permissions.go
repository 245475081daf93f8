package authkit

// Permissions is a signed bitmask where each set bit grants one atomic
// capability. The sentinel value -1 grants every capability, including ones
// added later, and is reserved for the root identity.
type Permissions int64

const (
	// PermRead allows reading tenant data.
	PermRead Permissions = 1 << iota
	// PermWrite allows creating and editing tenant data.
	PermWrite
	// PermDelete allows removing tenant data.
	PermDelete
	// PermManageUsers allows administering other accounts.
	PermManageUsers
	// PermExportData allows bulk data export.
	PermExportData
	// PermAuditLogs allows reading audit trails.
	PermAuditLogs
)

// PermissionsRoot is the root sentinel. It is assignable only through direct
// account provisioning, never through the permission-update path.
const PermissionsRoot Permissions = -1

// PermissionsAdmin is the fixed mask applied when granting admin.
const PermissionsAdmin = PermRead | PermWrite | PermDelete | PermManageUsers

// PermissionsReadOnly is the fixed mask applied when revoking admin.
const PermissionsReadOnly = PermRead

// permissionLabels keeps the atomic capabilities in declaration order so
// Labels output is stable.
var permissionLabels = []struct {
	bit  Permissions
	name string
}{
	{PermRead, "read"},
	{PermWrite, "write"},
	{PermDelete, "delete"},
	{PermManageUsers, "manage-users"},
	{PermExportData, "export-data"},
	{PermAuditLogs, "audit-logs"},
}

// IsRoot reports whether the mask is the root sentinel.
func IsRoot(mask Permissions) bool {
	return mask == PermissionsRoot
}

// HasPermission reports whether every bit of required is granted by mask.
// Root bypasses the bit math entirely.
func HasPermission(mask, required Permissions) bool {
	if IsRoot(mask) {
		return true
	}
	return mask&required == required
}

// Labels returns the capability names granted by mask. Root yields the full
// capability set.
func Labels(mask Permissions) []string {
	names := make([]string, 0, len(permissionLabels))
	for _, p := range permissionLabels {
		if IsRoot(mask) || mask&p.bit == p.bit {
			names = append(names, p.name)
		}
	}
	return names
}

// UserRole is a display-only role name derived from a permission mask.
type UserRole = string

const (
	// RoleRoot is the root identity.
	RoleRoot UserRole = "root"
	// RoleAdmin is any account holding the manage-users capability.
	RoleAdmin UserRole = "admin"
	// RoleUser is every other account.
	RoleUser UserRole = "user"
)

// RoleForMask maps a mask to its display role. Authorization decisions go
// through HasPermission, never through role names.
func RoleForMask(mask Permissions) UserRole {
	switch {
	case IsRoot(mask):
		return RoleRoot
	case mask&PermManageUsers == PermManageUsers:
		return RoleAdmin
	default:
		return RoleUser
	}
}
