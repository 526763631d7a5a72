package models

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	BaseModel
	UserID    string  `gorm:"type:varchar(36);not null;index"`
	MessageID *string `gorm:"type:varchar(36);index"`
	Type      string  `gorm:"type:varchar(50);not null"`
	Title     string  `gorm:"not null"`
	Data      datatypes.JSON
	IsRead    bool `gorm:"default:false;index"`
	ReadAt    *time.Time

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (n *Notification) IsAccessibleTo(id Identity, _ Action) bool {
	return id.Authenticated() && n.UserID == id.UserID
}
