package repository

import (
	"fmt"
	"io"
	"os"

	"emstrack-acl/internal/domain"

	"gopkg.in/yaml.v3"
)

// Seed fixture layout for MemoryStore:
//
//	users:
//	  - {id: 1, username: alice, is_active: true}
//	groups:
//	  - {id: 10, members: [1]}
//	ambulances:
//	  - {id: 3, equipmentholder_id: 30}
//	hospitals:
//	  - {id: 5, equipmentholder_id: 50}
//	grants:
//	  - {subject: user, subject_id: 1, kind: ambulance, resource_id: 3, can_read: true}
//	calls:
//	  - {id: 7, ambulances: [3, 4]}
type Seed struct {
	Users      []domain.User  `yaml:"users"`
	Groups     []SeedGroup    `yaml:"groups"`
	Ambulances []SeedResource `yaml:"ambulances"`
	Hospitals  []SeedResource `yaml:"hospitals"`
	Grants     []SeedGrant    `yaml:"grants"`
	Calls      []SeedCall     `yaml:"calls"`
}

type SeedGroup struct {
	ID      int64   `yaml:"id"`
	Name    string  `yaml:"name"`
	Members []int64 `yaml:"members"`
}

type SeedResource struct {
	ID                int64 `yaml:"id"`
	EquipmentHolderID int64 `yaml:"equipmentholder_id"`
}

type SeedGrant struct {
	Subject    domain.SubjectKind  `yaml:"subject"`
	SubjectID  int64               `yaml:"subject_id"`
	Kind       domain.ResourceKind `yaml:"kind"`
	ResourceID int64               `yaml:"resource_id"`
	CanRead    bool                `yaml:"can_read"`
	CanWrite   bool                `yaml:"can_write"`
}

type SeedCall struct {
	ID         int64   `yaml:"id"`
	Ambulances []int64 `yaml:"ambulances"`
}

// LoadSeed decodes a fixture from r
func LoadSeed(r io.Reader) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	return &s, nil
}

// LoadSeedFile decodes the fixture at path
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

// Apply loads s into m
func (s *Seed) Apply(m *MemoryStore) error {
	for _, u := range s.Users {
		m.UpsertUser(u)
	}
	for _, g := range s.Groups {
		for _, userID := range g.Members {
			m.AddMember(g.ID, userID)
		}
	}
	for _, a := range s.Ambulances {
		if err := m.AddResource(domain.AmbulanceRef(a.ID), a.EquipmentHolderID); err != nil {
			return err
		}
	}
	for _, h := range s.Hospitals {
		if err := m.AddResource(domain.HospitalRef(h.ID), h.EquipmentHolderID); err != nil {
			return err
		}
	}
	for i, g := range s.Grants {
		err := m.SetGrant(domain.Grant{
			SubjectKind: g.Subject,
			SubjectID:   g.SubjectID,
			Kind:        g.Kind,
			ResourceID:  g.ResourceID,
			CanRead:     g.CanRead,
			CanWrite:    g.CanWrite,
		})
		if err != nil {
			return fmt.Errorf("seed grant #%d: %w", i, err)
		}
	}
	for _, c := range s.Calls {
		m.SetCall(c.ID, c.Ambulances...)
	}
	return nil
}
