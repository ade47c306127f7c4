package models

import "time"

// Role is the access level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// User is the stored and returned representation of a user.
type User struct {
	ID           int        `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string     `json:"name" gorm:"type:varchar(100)"`
	Email        string     `json:"email" gorm:"index;type:varchar(255)"`
	Age          int        `json:"age"`
	Role         Role       `json:"role" gorm:"index;type:varchar(16)"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255)"` // never serialized
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt    *time.Time `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// EntityID returns the user's identifier.
func (u User) EntityID() int { return u.ID }

// Clone returns a copy of u that shares no memory with it.
func (u User) Clone() User {
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		u.UpdatedAt = &t
	}
	return u
}

// UserCreate is the request body for creating a user.
type UserCreate struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Age      int    `json:"age" validate:"required,gte=18,lte=120"`
	Password string `json:"password" validate:"required,min=8"`
	Role     Role   `json:"role" validate:"omitempty,oneof=admin user guest"`
}

// UserUpdate is a partial update of a user. Only set fields are applied.
type UserUpdate struct {
	Name  Optional[string] `json:"name" validate:"omitempty,min=2,max=100"`
	Email Optional[string] `json:"email" validate:"omitempty,email"`
	Age   Optional[int]    `json:"age" validate:"omitempty,gte=18,lte=120"`
}

// Apply merges the set fields of p into u.
func (p UserUpdate) Apply(u *User) {
	p.Name.ApplyTo(&u.Name)
	p.Email.ApplyTo(&u.Email)
	p.Age.ApplyTo(&u.Age)
}

// UserFilter narrows a user listing. Zero fields do not filter.
type UserFilter struct {
	Role Role `json:"role" validate:"omitempty,oneof=admin user guest"`
}

// Match reports whether u satisfies every provided filter.
func (f UserFilter) Match(u User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	return true
}
