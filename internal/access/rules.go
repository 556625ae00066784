package access

var (
	staff    = Roles(RoleAdmin, RoleEmployee)
	everyone = Roles(RoleAdmin, RoleEmployee, RoleUser)
	admins   = Roles(RoleAdmin)
)

// User routes.
var (
	UserList       = Rule{Allowed: staff}
	UserRead       = Rule{Allowed: staff}
	UserUpdate     = Rule{Allowed: admins, SelfAccess: true}
	UserDelete     = Rule{Allowed: admins, SelfAccess: true}
	UserChangeRole = Rule{Allowed: admins}
)

// Catalog writes. Reads are public and carry no rule.
var (
	StationWrite = Rule{Allowed: admins}
	TrainWrite   = Rule{Allowed: admins}
)

// Ticket routes. History is always scoped to the caller by the query itself.
var (
	TicketBook      = Rule{Allowed: everyone}
	TicketHistory   = Rule{Allowed: everyone}
	TicketsForTrain = Rule{Allowed: staff}
	TicketValidate  = Rule{Allowed: staff}
	// Users reach their own tickets through self-access only.
	TicketRead = Rule{Allowed: staff, SelfAccess: true}
)
