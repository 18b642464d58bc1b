package setup

// Role names as stored on user rows
const (
	RoleTechnician = "technician"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// roleRank orders roles by privilege. Unknown roles rank below everything.
var roleRank = map[string]int{
	RoleTechnician: 1,
	RoleSupervisor: 2,
	RoleAdmin:      3,
}

// Allow is the single policy evaluation point for role-gated operations.
// Every state-mutating handler calls this at its boundary instead of
// re-implementing role checks inline.
func Allow(actorRole, requiredRole string) bool {
	actor, ok := roleRank[actorRole]
	if !ok {
		return false
	}
	required, ok := roleRank[requiredRole]
	if !ok {
		return false
	}
	return actor >= required
}
