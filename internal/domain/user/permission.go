package user

import "strings"

// Capability is a bit set of named permissions.
type Capability uint32

const (
	CapSelfAttendance Capability = 1 << iota
	CapSelfPayroll
	CapLeaveApply
	CapLeaveApprove
	CapSalaryManage
	CapPayrollViewAll
	CapAttendanceViewAll
	CapAttendanceViewTeam
	CapEmployeeViewAll
)

const capSelfService = CapSelfAttendance | CapSelfPayroll | CapLeaveApply

var capabilityNames = []struct {
	bit  Capability
	name string
}{
	{CapSelfAttendance, "attendance.self"},
	{CapSelfPayroll, "payroll.self"},
	{CapLeaveApply, "leave.apply"},
	{CapLeaveApprove, "leave.approve"},
	{CapSalaryManage, "salary.manage"},
	{CapPayrollViewAll, "payroll.view_all"},
	{CapAttendanceViewAll, "attendance.view_all"},
	{CapAttendanceViewTeam, "attendance.view_team"},
	{CapEmployeeViewAll, "employee.view_all"},
}

// RoleCapabilities maps roles to their capability set
var RoleCapabilities = map[Role]Capability{
	RoleAdmin: capSelfService | CapLeaveApprove | CapSalaryManage | CapPayrollViewAll |
		CapAttendanceViewAll | CapAttendanceViewTeam | CapEmployeeViewAll,
	RoleHR: capSelfService | CapLeaveApprove | CapSalaryManage | CapPayrollViewAll |
		CapAttendanceViewAll | CapEmployeeViewAll,
	RoleManager:  capSelfService | CapLeaveApprove | CapAttendanceViewTeam,
	RoleEmployee: capSelfService,
}

func CapabilitiesOf(role Role) Capability {
	return RoleCapabilities[role]
}

// Has reports whether every bit of c is present.
func (s Capability) Has(c Capability) bool {
	return c != 0 && s&c == c
}

func (s Capability) String() string {
	var names []string
	for _, n := range capabilityNames {
		if s&n.bit != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

// HasPermission checks if a role has a specific capability
func HasPermission(role Role, c Capability) bool {
	return CapabilitiesOf(role).Has(c)
}

// RolesWith lists the roles whose capability set includes c.
func RolesWith(c Capability) []Role {
	var roles []Role
	for _, r := range []Role{RoleAdmin, RoleHR, RoleManager, RoleEmployee} {
		if HasPermission(r, c) {
			roles = append(roles, r)
		}
	}
	return roles
}
