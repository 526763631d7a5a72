package models

// Action is what the caller wants to do with a protected entity.
type Action string

const (
	ActionRead        Action = "read"
	ActionWrite       Action = "write"
	ActionDelete      Action = "delete"
	ActionAcknowledge Action = "acknowledge"
)

// Identity is the decoded caller. The zero value is anonymous.
type Identity struct {
	UserID   string
	Username string
	Email    string
	Role     UserRole
	Staff    bool
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Protected is implemented by every entity with per-object access rules.
type Protected interface {
	IsAccessibleTo(id Identity, action Action) bool
}
