package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	return s
}

func seedProject(t *testing.T, s *Store) *Project {
	t.Helper()
	p := &Project{Name: "Shadowfall", Overview: "A city of rival guilds."}
	require.NoError(t, s.CreateProject(p))
	return p
}

func TestCharacterLookupByName(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)

	c := &Character{ProjectID: p.ID, Name: "Malak", Type: "major"}
	require.NoError(t, s.CreateCharacter(c))
	require.NoError(t, s.CreateTrait(&CharacterTrait{
		CharacterID: c.ID,
		Type:        "personality",
		Description: "Broods in doorways.",
	}))

	got, err := s.CharacterByName(p.ID, "Malak")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	require.Len(t, got.Traits, 1)
	assert.Equal(t, "personality", got.Traits[0].Type)

	// Case-insensitive fallback.
	got, err = s.CharacterByName(p.ID, "malak")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = s.CharacterByName(p.ID, "Nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectScoping(t *testing.T) {
	s := newTestStore(t)
	p1 := seedProject(t, s)
	p2 := &Project{Name: "Other"}
	require.NoError(t, s.CreateProject(p2))

	c := &Character{ProjectID: p1.ID, Name: "Mira", Type: "minor"}
	require.NoError(t, s.CreateCharacter(c))

	_, err := s.CharacterByID(p2.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.CharacterByID(p1.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mira", got.Name)
}

func TestActsOrdered(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)

	require.NoError(t, s.CreateAct(&Act{ProjectID: p.ID, Name: "Act 2", Order: 2}))
	require.NoError(t, s.CreateAct(&Act{ProjectID: p.ID, Name: "Act 1", Order: 1}))

	acts, err := s.ActsByProject(p.ID)
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, "Act 1", acts[0].Name)
	assert.Equal(t, "Act 2", acts[1].Name)
}

func TestTransactionRollback(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)

	err := s.Transaction(func(tx *Store) error {
		if err := tx.CreateCharacter(&Character{ProjectID: p.ID, Name: "Ghost", Type: "major"}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	chars, err := s.CharactersByProject(p.ID)
	require.NoError(t, err)
	assert.Empty(t, chars)
}

func TestBeatCompletionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)

	b := &Beat{ProjectID: p.ID, Name: "Meet the mentor"}
	require.NoError(t, s.CreateBeat(b))

	b.Completed = true
	require.NoError(t, s.SaveBeat(b))

	beats, err := s.BeatsByProject(p.ID)
	require.NoError(t, err)
	require.Len(t, beats, 1)
	assert.True(t, beats[0].Completed)
}
