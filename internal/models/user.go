package models

import "time"

// User represents a student or staff member who places orders.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(50);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash
	Name      string    `json:"name" gorm:"type:varchar(50);not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(20)"`
	CreatedAt time.Time `json:"created_at"`
}

// Admin vets merchant registrations.
type Admin struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(50);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	Name      string    `json:"name" gorm:"type:varchar(50)"`
	CreatedAt time.Time `json:"created_at"`
}

// Address is a saved delivery address of a user.
type Address struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	UserID    uint   `json:"user_id" gorm:"index;not null"`
	Receiver  string `json:"receiver" gorm:"type:varchar(50);not null"`
	Phone     string `json:"phone" gorm:"type:varchar(20);not null"`
	Detail    string `json:"detail" gorm:"type:varchar(200);not null"`
	IsDefault bool   `json:"is_default" gorm:"not null;default:false"`
}
