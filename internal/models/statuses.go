package models

type UserRole string

const (
	UserRoleGuest     UserRole = "guest"
	UserRoleHost      UserRole = "host"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleGuest, UserRoleHost, UserRoleModerator, UserRoleAdmin:
		return true
	}
	return false
}

const NotificationTypeNewMessage = "new_message"
