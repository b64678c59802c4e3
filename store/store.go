// Package store provides the gorm-backed domain store for story projects:
// characters, traits, relationships, factions, acts, beats and scenes. The
// lookup tools and operation executors are its only consumers; everything is
// scoped by project to keep sessions isolated.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound reports a missing entity for the requested project scope.
var ErrNotFound = errors.New("store: not found")

// Store wraps a gorm DB handle with project-scoped queries.
type Store struct {
	db *gorm.DB
}

// Options configure opening the store.
type Options struct {
	// LogLevel controls gorm's own statement logging.
	LogLevel logger.LogLevel
}

// Open connects via the given dialector and migrates the schema.
func Open(dialector gorm.Dialector, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{LogLevel: logger.Silent}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(opts.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(
		&Project{},
		&Faction{},
		&Character{},
		&CharacterTrait{},
		&CharacterRelationship{},
		&Act{},
		&Beat{},
		&Scene{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStore wraps an already opened gorm handle. Used by transactions and tests.
func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for cases the query helpers do not cover.
func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn inside a database transaction, passing a Store bound to
// the transactional handle.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func wrapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ProjectByID fetches a project.
func (s *Store) ProjectByID(id uuid.UUID) (*Project, error) {
	var p Project
	if err := s.db.First(&p, "id = ?", id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &p, nil
}

// CreateProject inserts a project.
func (s *Store) CreateProject(p *Project) error {
	return s.db.Create(p).Error
}

// CharacterByID fetches a character with its traits and faction, scoped to a
// project.
func (s *Store) CharacterByID(projectID, id uuid.UUID) (*Character, error) {
	var c Character
	err := s.db.Preload("Traits").Preload("Faction").
		First(&c, "id = ? AND project_id = ?", id, projectID).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &c, nil
}

// CharacterByName fetches a character by exact name, falling back to a
// case-insensitive substring match.
func (s *Store) CharacterByName(projectID uuid.UUID, name string) (*Character, error) {
	var c Character
	err := s.db.Preload("Traits").Preload("Faction").
		First(&c, "project_id = ? AND name = ?", projectID, name).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.db.Preload("Traits").Preload("Faction").
		Where("project_id = ? AND LOWER(name) LIKE ?", projectID, "%"+strings.ToLower(name)+"%").
		First(&c).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &c, nil
}

// CharactersByProject lists a project's characters ordered by name.
func (s *Store) CharactersByProject(projectID uuid.UUID) ([]Character, error) {
	var out []Character
	if err := s.db.Where("project_id = ?", projectID).Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCharacter inserts a character.
func (s *Store) CreateCharacter(c *Character) error {
	return s.db.Create(c).Error
}

// SaveCharacter persists modifications to an existing character.
func (s *Store) SaveCharacter(c *Character) error {
	return s.db.Save(c).Error
}

// TraitsByCharacter lists a character's traits.
func (s *Store) TraitsByCharacter(characterID uuid.UUID) ([]CharacterTrait, error) {
	var out []CharacterTrait
	if err := s.db.Where("character_id = ?", characterID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// TraitByType fetches a character's trait of the given type, or ErrNotFound.
func (s *Store) TraitByType(characterID uuid.UUID, traitType string) (*CharacterTrait, error) {
	var t CharacterTrait
	err := s.db.First(&t, "character_id = ? AND type = ?", characterID, traitType).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &t, nil
}

// CreateTrait inserts a character trait.
func (s *Store) CreateTrait(t *CharacterTrait) error {
	return s.db.Create(t).Error
}

// SaveTrait persists modifications to an existing trait.
func (s *Store) SaveTrait(t *CharacterTrait) error {
	return s.db.Save(t).Error
}

// CreateRelationship inserts a character relationship.
func (s *Store) CreateRelationship(r *CharacterRelationship) error {
	return s.db.Create(r).Error
}

// FactionByID fetches a faction scoped to a project.
func (s *Store) FactionByID(projectID, id uuid.UUID) (*Faction, error) {
	var f Faction
	if err := s.db.First(&f, "id = ? AND project_id = ?", id, projectID).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &f, nil
}

// CreateFaction inserts a faction.
func (s *Store) CreateFaction(f *Faction) error {
	return s.db.Create(f).Error
}

// SaveFaction persists modifications to an existing faction.
func (s *Store) SaveFaction(f *Faction) error {
	return s.db.Save(f).Error
}

// ActByID fetches an act scoped to a project.
func (s *Store) ActByID(projectID, id uuid.UUID) (*Act, error) {
	var a Act
	if err := s.db.First(&a, "id = ? AND project_id = ?", id, projectID).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &a, nil
}

// ActsByProject lists a project's acts in story order.
func (s *Store) ActsByProject(projectID uuid.UUID) ([]Act, error) {
	var out []Act
	if err := s.db.Where("project_id = ?", projectID).Order("position").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAct inserts an act.
func (s *Store) CreateAct(a *Act) error {
	return s.db.Create(a).Error
}

// SaveAct persists modifications to an existing act.
func (s *Store) SaveAct(a *Act) error {
	return s.db.Save(a).Error
}

// BeatByID fetches a beat scoped to a project.
func (s *Store) BeatByID(projectID, id uuid.UUID) (*Beat, error) {
	var b Beat
	if err := s.db.First(&b, "id = ? AND project_id = ?", id, projectID).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &b, nil
}

// BeatsByProject lists a project's beats in story order.
func (s *Store) BeatsByProject(projectID uuid.UUID) ([]Beat, error) {
	var out []Beat
	if err := s.db.Where("project_id = ?", projectID).Order("position").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBeat inserts a beat.
func (s *Store) CreateBeat(b *Beat) error {
	return s.db.Create(b).Error
}

// SaveBeat persists modifications to an existing beat.
func (s *Store) SaveBeat(b *Beat) error {
	return s.db.Save(b).Error
}

// SceneByID fetches a scene scoped to a project.
func (s *Store) SceneByID(projectID, id uuid.UUID) (*Scene, error) {
	var sc Scene
	if err := s.db.First(&sc, "id = ? AND project_id = ?", id, projectID).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &sc, nil
}

// CreateScene inserts a scene.
func (s *Store) CreateScene(sc *Scene) error {
	return s.db.Create(sc).Error
}
