package rbac

import "go-leave/internal/domain"

// DefaultPolicy grants employees their own requests and profile. Admins
// inherit everything an employee may do.
var DefaultPolicy = []domain.Permission{
	{Role: domain.RoleEmployee, Resource: domain.ResourceLeave, Action: domain.ActionCreate},
	{Role: domain.RoleEmployee, Resource: domain.ResourceLeave, Action: domain.ActionReadOwn},
	{Role: domain.RoleEmployee, Resource: domain.ResourceAccount, Action: domain.ActionReadOwn},
	{Role: domain.RoleEmployee, Resource: domain.ResourceAccount, Action: domain.ActionUpdate},

	{Role: domain.RoleAdmin, Resource: domain.ResourceLeave, Action: domain.ActionReadAll},
	{Role: domain.RoleAdmin, Resource: domain.ResourceLeave, Action: domain.ActionApprove},
	{Role: domain.RoleAdmin, Resource: domain.ResourceLeave, Action: domain.ActionDelete},
	{Role: domain.RoleAdmin, Resource: domain.ResourceAccount, Action: domain.ActionCreate},
	{Role: domain.RoleAdmin, Resource: domain.ResourceAccount, Action: domain.ActionReadAll},
	{Role: domain.RoleAdmin, Resource: domain.ResourceAccount, Action: domain.ActionAdjust},
}

// RoleInheritance lists (child, parent) pairs.
var RoleInheritance = [][2]string{
	{domain.RoleAdmin, domain.RoleEmployee},
}
