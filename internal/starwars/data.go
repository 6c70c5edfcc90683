package starwars

import (
	"fmt"
	"sync"
)

// Episode is the internal value of the Episode enum.
type Episode int

const (
	NewHope Episode = 4
	Empire  Episode = 5
	Jedi    Episode = 6
)

// Character is a human or a droid. Exactly one of HomePlanet and
// PrimaryFunction is meaningful, depending on Droid.
type Character struct {
	ID              string    `graphql:"id"`
	Name            string    `graphql:"name"`
	FriendIDs       []string  `graphql:"-"`
	AppearsIn       []Episode `graphql:"appearsIn"`
	HomePlanet      *string   `graphql:"homePlanet"`
	PrimaryFunction string    `graphql:"primaryFunction"`
	Droid           bool      `graphql:"-"`
}

func planet(name string) *string { return &name }

func seed() []*Character {
	all := []Episode{NewHope, Empire, Jedi}
	return []*Character{
		{ID: "1000", Name: "Luke Skywalker", FriendIDs: []string{"1002", "1003", "2000", "2001"}, AppearsIn: all, HomePlanet: planet("Tatooine")},
		{ID: "1001", Name: "Darth Vader", FriendIDs: []string{"1004"}, AppearsIn: all, HomePlanet: planet("Tatooine")},
		{ID: "1002", Name: "Han Solo", FriendIDs: []string{"1000", "1003", "2001"}, AppearsIn: all},
		{ID: "1003", Name: "Leia Organa", FriendIDs: []string{"1000", "1002", "2000", "2001"}, AppearsIn: all, HomePlanet: planet("Alderaan")},
		{ID: "1004", Name: "Wilhuff Tarkin", FriendIDs: []string{"1001"}, AppearsIn: []Episode{NewHope}},
		{ID: "2000", Name: "C-3PO", FriendIDs: []string{"1000", "1002", "1003", "2001"}, AppearsIn: all, PrimaryFunction: "Protocol", Droid: true},
		{ID: "2001", Name: "R2-D2", FriendIDs: []string{"1000", "1002", "1003"}, AppearsIn: all, PrimaryFunction: "Astromech", Droid: true},
	}
}

// Store holds the characters of one schema instance. Lookups return copies,
// so a rename never changes a value a running request already holds.
type Store struct {
	mu         sync.RWMutex
	characters map[string]*Character
}

// NewStore returns a store seeded with the original trilogy cast.
func NewStore() *Store {
	s := &Store{characters: make(map[string]*Character)}
	for _, c := range seed() {
		s.characters[c.ID] = c
	}
	return s
}

// Character returns the character with id, or nil.
func (s *Store) Character(id string) *Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.characters[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// Human returns the human with id, or nil when id is unknown or a droid.
func (s *Store) Human(id string) *Character {
	if c := s.Character(id); c != nil && !c.Droid {
		return c
	}
	return nil
}

// Droid returns the droid with id, or nil when id is unknown or a human.
func (s *Store) Droid(id string) *Character {
	if c := s.Character(id); c != nil && c.Droid {
		return c
	}
	return nil
}

// Friends returns the friends of c in declared order, skipping unknown ids.
func (s *Store) Friends(c *Character) []*Character {
	out := make([]*Character, 0, len(c.FriendIDs))
	for _, id := range c.FriendIDs {
		if f := s.Character(id); f != nil {
			out = append(out, f)
		}
	}
	return out
}

// Rename changes a character's name and returns the updated character.
func (s *Store) Rename(id, name string) (*Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[id]
	if !ok {
		return nil, fmt.Errorf("no character with id %q", id)
	}
	cp := *c
	cp.Name = name
	s.characters[id] = &cp
	out := cp
	return &out, nil
}
