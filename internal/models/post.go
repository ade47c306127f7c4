package models

import "time"

// Post is the stored and returned representation of a post.
type Post struct {
	ID        int        `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string     `json:"title" gorm:"type:varchar(200)"`
	Content   string     `json:"content" gorm:"type:text"`
	AuthorID  int        `json:"author_id" gorm:"index"`
	Tags      []string   `json:"tags" gorm:"serializer:json"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt *time.Time `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// EntityID returns the post's identifier.
func (p Post) EntityID() int { return p.ID }

// Clone returns a copy of p that shares no memory with it.
func (p Post) Clone() Post {
	p.Tags = append(make([]string, 0, len(p.Tags)), p.Tags...)
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		p.UpdatedAt = &t
	}
	return p
}

// PostCreate is the request body for creating a post.
type PostCreate struct {
	Title    string   `json:"title" validate:"required,min=3,max=200"`
	Content  string   `json:"content" validate:"required,min=10"`
	AuthorID *int     `json:"author_id" validate:"required"` // nil when absent; 0 is a valid id
	Tags     []string `json:"tags" validate:"max=10"`
}

// PostUpdate is a partial update of a post. Only set fields are applied.
type PostUpdate struct {
	Title   Optional[string]   `json:"title" validate:"omitempty,min=3,max=200"`
	Content Optional[string]   `json:"content" validate:"omitempty,min=10"`
	Tags    Optional[[]string] `json:"tags" validate:"omitempty,max=10"`
}

// Apply merges the set fields of u into p. Tags are copied and never left nil.
func (u PostUpdate) Apply(p *Post) {
	u.Title.ApplyTo(&p.Title)
	u.Content.ApplyTo(&p.Content)
	if tags, ok := u.Tags.Get(); ok {
		p.Tags = append(make([]string, 0, len(tags)), tags...)
	}
}

// PostFilter narrows a post listing. Nil fields do not filter.
type PostFilter struct {
	AuthorID *int `json:"author_id"`
}

// Match reports whether p satisfies every provided filter.
func (f PostFilter) Match(p Post) bool {
	if f.AuthorID != nil && p.AuthorID != *f.AuthorID {
		return false
	}
	return true
}
