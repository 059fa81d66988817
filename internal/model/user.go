package model

import "time"

const UserTableName = "users"

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email          string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	HashedPassword string    `gorm:"column:hashed_password;size:255;not null" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime;not null" json:"created_at"`
}

func (User) TableName() string {
	return UserTableName
}

// The getters below satisfy schema.Source and schema.CredentialSource. They are
// safe on a nil *User, which projects as an empty record.

func (u *User) IsNil() bool { return u == nil }

func (u *User) GetID() uint {
	if u == nil {
		return 0
	}
	return u.ID
}

func (u *User) GetUsername() string {
	if u == nil {
		return ""
	}
	return u.Username
}

func (u *User) GetEmail() string {
	if u == nil {
		return ""
	}
	return u.Email
}

func (u *User) GetHashedPassword() string {
	if u == nil {
		return ""
	}
	return u.HashedPassword
}

func (u *User) GetCreatedAt() time.Time {
	if u == nil {
		return time.Time{}
	}
	return u.CreatedAt
}
