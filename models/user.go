package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

type UserAddress struct {
	Street  string `json:"street,omitempty" bson:"street,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	Pincode string `json:"pincode,omitempty" bson:"pincode,omitempty"`
	Country string `json:"country,omitempty" bson:"country,omitempty"`
}

type UserProfile struct {
	Address     *UserAddress `json:"address,omitempty" bson:"address,omitempty"`
	DateOfBirth *time.Time   `json:"dateOfBirth,omitempty" bson:"dateOfBirth,omitempty"`
	Gender      string       `json:"gender,omitempty" bson:"gender,omitempty"`
}

type UserPreferences struct {
	Newsletter         bool     `json:"newsletter" bson:"newsletter"`
	SMSNotifications   bool     `json:"smsNotifications" bson:"smsNotifications"`
	EmailNotifications bool     `json:"emailNotifications" bson:"emailNotifications"`
	FavoriteCategories []string `json:"favoriteCategories,omitempty" bson:"favoriteCategories,omitempty"`
	Language           string   `json:"language,omitempty" bson:"language,omitempty"`
}

type User struct {
	ID                   primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name                 string             `json:"name" bson:"name"`
	Email                string             `json:"email" bson:"email"`
	Password             string             `json:"-" bson:"password"`
	Phone                string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Role                 Role               `json:"role" bson:"role"`
	IsEmailVerified      bool               `json:"isEmailVerified" bson:"isEmailVerified"`
	LoginAttempts        int                `json:"-" bson:"loginAttempts"`
	LockUntil            *time.Time         `json:"-" bson:"lockUntil,omitempty"`
	LastLogin            *time.Time         `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	Profile              UserProfile        `json:"profile" bson:"profile"`
	Preferences          UserPreferences    `json:"preferences" bson:"preferences"`
	ResetPasswordToken   string             `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *time.Time         `json:"-" bson:"resetPasswordExpires,omitempty"`
	CreatedAt            time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// IsLocked reports whether a lockout is still in force at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

type UserFilter struct {
	Search   string
	Role     Role
	Verified *bool
}

// UserUpdate holds the fields an admin or the user may change. Nil means untouched.
type UserUpdate struct {
	Name            *string
	Email           *string
	Phone           *string
	Role            *Role
	IsEmailVerified *bool
	Profile         *UserProfile
	Preferences     *UserPreferences
}
