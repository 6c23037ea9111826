package models

// Role identifies the acting credential on a transition request.
// Administrative roles satisfy every edge of the transition table.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleOwner      Role = "owner"
	RoleManager    Role = "manager"
	RoleDesigner   Role = "designer"
	RoleProduction Role = "production"
	RoleQC         Role = "qc"
	RoleLogistics  Role = "logistics"
	RoleSystem     Role = "system"
)

// IsAdministrative reports whether the role bypasses per-edge role checks.
// The system credential is used by automated transitions and is treated
// the same way.
func (r Role) IsAdministrative() bool {
	return r == RoleAdmin || r == RoleOwner || r == RoleSystem
}

// Satisfies reports whether the role meets the edge requirement. An empty
// requirement means any authenticated role may take the edge.
func (r Role) Satisfies(required Role) bool {
	if r.IsAdministrative() || required == "" {
		return true
	}

	return r == required
}
