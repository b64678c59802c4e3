package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is the root aggregate every session is bound to.
type Project struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name     string    `gorm:"not null"`
	User     string
	Type     string
	Genre    string
	Theme    string
	Concept  string
	Overview string

	Characters []Character `gorm:"constraint:OnDelete:CASCADE"`
	Factions   []Faction   `gorm:"constraint:OnDelete:CASCADE"`
	Acts       []Act       `gorm:"constraint:OnDelete:CASCADE"`
	Scenes     []Scene     `gorm:"constraint:OnDelete:CASCADE"`
}

// Faction groups characters under a shared allegiance.
type Faction struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Name        string    `gorm:"not null"`
	Description string
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Character is a named actor in a project.
type Character struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID `gorm:"type:uuid;index;not null"`
	FactionID   *uuid.UUID `gorm:"type:uuid"`
	Name        string    `gorm:"not null"`
	Type        string    `gorm:"not null"`
	Voice       string
	Description string

	Faction *Faction
	Traits  []CharacterTrait `gorm:"constraint:OnDelete:CASCADE"`
}

// CharacterTrait is a typed descriptive attribute of a character.
type CharacterTrait struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CharacterID uuid.UUID `gorm:"type:uuid;index;not null"`
	Type        string    `gorm:"not null"`
	Label       string
	Description string
	CreatedAt   time.Time
}

// CharacterRelationship links two characters of the same project.
type CharacterRelationship struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	CharacterID        uuid.UUID `gorm:"type:uuid;index;not null"`
	RelatedCharacterID uuid.UUID `gorm:"type:uuid;index;not null"`
	Type               string
	Description        string
	CreatedAt          time.Time
}

// Act is one top-level division of a story.
type Act struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Name        string    `gorm:"not null"`
	Order       int       `gorm:"column:position"`
	Description string
	CreatedAt   time.Time

	Beats []Beat `gorm:"constraint:OnDelete:CASCADE"`
}

// Beat is a story objective, optionally bound to an act.
type Beat struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;index;not null"`
	ActID       *uuid.UUID `gorm:"type:uuid"`
	Name        string     `gorm:"not null"`
	Type        string
	Order       int `gorm:"column:position"`
	Description string
	Completed   bool
	CreatedAt   time.Time
}

// Scene is a single playable unit of a story act.
type Scene struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Act         int
	Name        string `gorm:"not null"`
	Order       int    `gorm:"column:position"`
	Description string
	CreatedAt   time.Time
}

// BeforeCreate assigns identifiers for entities inserted without one.
func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (f *Faction) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (c *Character) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (t *CharacterTrait) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (r *CharacterRelationship) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (a *Act) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (b *Beat) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (s *Scene) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
