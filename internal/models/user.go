package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model     `json:"-"`
	ID             uint   `json:"id" gorm:"primaryKey"`
	Fullname       string `json:"fullname"`
	Username       string `json:"username" gorm:"uniqueIndex"`
	Email          string `json:"email" gorm:"uniqueIndex"`
	Password       string `json:"-"` // bcrypt hash, never serialized
	ProfilePicture string `json:"profile_picture"`
	FirebaseUID    string `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
}

// UserCompact is the projection embedded in enriched responses
// (notification actors, comment authors).
type UserCompact struct {
	ID             uint   `json:"id"`
	Fullname       string `json:"fullname"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}

// ToCompact converts a User to its compact projection
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:             u.ID,
		Fullname:       u.Fullname,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}

type SignupRequest struct {
	Fullname string `json:"fullname" validate:"required,min=2,max=50"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
