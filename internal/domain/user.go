package domain

import "time"

// Token roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                  // Primary key
	Username  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"` // Unique username
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`   // Unique email
	Password  string    `gorm:"not null" json:"-"`                                     // Hashed password
	FirstName string    `gorm:"type:varchar(64);not null" json:"firstName"`            // Given name
	LastName  string    `gorm:"type:varchar(64);not null" json:"lastName"`             // Family name
	CreatedAt time.Time `gorm:"index" json:"createdAt"`                                // Registration time
	UpdatedAt time.Time `json:"updatedAt"`                                             // Last profile update
}

// Identity is the display identity attached to admin notifications
type Identity struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Identity returns the user's display identity, never credentials
func (u *User) Identity() Identity {
	return Identity{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

// ProfilePatch holds the fields a user may change on their own profile
type ProfilePatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
}
