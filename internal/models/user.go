package models

type User struct {
	BaseModel
	Username     string   `gorm:"type:varchar(150);uniqueIndex;not null"`
	Email        string   `gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName    string   `gorm:"type:varchar(150)"`
	LastName     string   `gorm:"type:varchar(150)"`
	PasswordHash string   `gorm:"not null"`
	Role         UserRole `gorm:"type:varchar(20);not null;default:'guest'"`
	IsStaff      bool     `gorm:"default:false"`
}

// Identity is the authenticated caller as seen by the access checks.
func (u *User) Identity() Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Staff:    u.IsStaff,
	}
}
