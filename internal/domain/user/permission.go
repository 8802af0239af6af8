package user

type Permission string

const (
	// Leave
	PermissionLeaveViewOwn   Permission = "leave.view_own"
	PermissionLeaveCreate    Permission = "leave.create"
	PermissionLeaveViewTeam  Permission = "leave.view_team"
	PermissionLeaveApprove   Permission = "leave.approve"
	PermissionLeaveReverse   Permission = "leave.reverse"
	PermissionLeaveProvision Permission = "leave.provision"
	PermissionLeaveStats     Permission = "leave.stats"

	// Attendance
	PermissionAttendanceViewOwn  Permission = "attendance.view_own"
	PermissionAttendanceCreate   Permission = "attendance.create"
	PermissionAttendanceViewTeam Permission = "attendance.view_team"
	PermissionAttendanceBackfill Permission = "attendance.backfill"
)

var employeePermissions = []Permission{
	PermissionLeaveViewOwn,
	PermissionLeaveCreate,
	PermissionAttendanceViewOwn,
	PermissionAttendanceCreate,
}

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: append([]Permission{
		PermissionLeaveViewTeam,
		PermissionLeaveApprove,
		PermissionLeaveReverse,
		PermissionLeaveProvision,
		PermissionLeaveStats,
		PermissionAttendanceViewTeam,
		PermissionAttendanceBackfill,
	}, employeePermissions...),
	RoleHR: append([]Permission{
		PermissionLeaveViewTeam,
		PermissionLeaveApprove,
		PermissionLeaveReverse,
		PermissionLeaveProvision,
		PermissionLeaveStats,
		PermissionAttendanceViewTeam,
		PermissionAttendanceBackfill,
	}, employeePermissions...),
	RoleTeamLead: append([]Permission{
		// Scoped to managed employees by the Gate
		PermissionLeaveViewTeam,
		PermissionLeaveApprove,
		PermissionAttendanceViewTeam,
	}, employeePermissions...),
	RoleEmployee: employeePermissions,
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
