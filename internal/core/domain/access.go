package domain

// CapabilityAdmin grants every access level platform-wide. It is
// evaluated before any store lookup, so a store outage can never widen
// or narrow what an admin may do.
const CapabilityAdmin = "admin"

type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
)

// Satisfies reports whether a granted level covers a required one.
// Write covers read; read never covers write.
func (l AccessLevel) Satisfies(required AccessLevel) bool {
	if l == AccessWrite {
		return true
	}
	return required == AccessRead
}

// Caller is the pre-authenticated identity handed in by the routing
// layer.
type Caller struct {
	TeamID       string
	KeyID        string
	Capabilities []string
}

func (c Caller) HasCapability(capability string) bool {
	for _, have := range c.Capabilities {
		if have == capability {
			return true
		}
	}
	return false
}

// AccessPolicy is explicit per-version sharing. Absence means the
// version is not shared at all.
type AccessPolicy struct {
	ModelID     string      `json:"model_id"`
	Version     string      `json:"version"`
	OwnerTeamID string      `json:"owner_team_id"`
	SharedWith  []string    `json:"shared_with"`
	AccessLevel AccessLevel `json:"access_level"`
}

func (p *AccessPolicy) SharedWithTeam(teamID string) bool {
	for _, t := range p.SharedWith {
		if t == teamID {
			return true
		}
	}
	return false
}

// TeamPermissions is the coarse cross-team grant record, independent of
// per-model sharing. SharedTeams is informational only.
type TeamPermissions struct {
	TeamID          string   `json:"team_id"`
	SharedTeams     []string `json:"shared_teams"`
	AccessibleTeams []string `json:"accessible_teams"`
}

func (p *TeamPermissions) CanAccessTeam(teamID string) bool {
	for _, t := range p.AccessibleTeams {
		if t == teamID {
			return true
		}
	}
	return false
}
