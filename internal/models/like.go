package models

import "gorm.io/gorm"

// Like represents a like on a blog
type Like struct {
	gorm.Model
	BlogID string `json:"blog_id" gorm:"index"` // ID of the blog that was liked (MongoDB ObjectID as string)
	UserID uint   `json:"user_id" gorm:"index"` // ID of the user who liked the blog
}
