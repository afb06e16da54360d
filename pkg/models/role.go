package models

// Role identifies which model role a call is made for.
type Role string

const (
	// RolePlanning is the higher-capability role that decomposes the objective
	// and judges completion.
	RolePlanning Role = "planning"
	// RoleExecuting is the faster, cheaper role that carries out one sub-task.
	RoleExecuting Role = "executing"
	// RoleRefining is the role that merges all sub-task results into the final artifact.
	RoleRefining Role = "refining"
)

// Roles lists every role in a stable order.
func Roles() []Role {
	return []Role{RolePlanning, RoleExecuting, RoleRefining}
}

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RolePlanning, RoleExecuting, RoleRefining:
		return true
	default:
		return false
	}
}

// DisplayName returns the name used in progress messages and usage summaries.
func (r Role) DisplayName() string {
	switch r {
	case RolePlanning:
		return "Orchestrator"
	case RoleExecuting:
		return "Sub-agent"
	case RoleRefining:
		return "Refiner"
	default:
		return string(r)
	}
}
