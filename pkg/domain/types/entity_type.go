package types

import "fmt"

// EntityType represents the kind of a knowledge graph entity
type EntityType string

const (
	EntityClientProfile EntityType = "ClientProfile"
	EntityObjection     EntityType = "Objection"
	EntityStrategy      EntityType = "Strategy"
	EntityTechnique     EntityType = "Technique"
	EntityOutcome       EntityType = "Outcome"
)

// AllEntityTypes returns all valid entity types
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityClientProfile,
		EntityObjection,
		EntityStrategy,
		EntityTechnique,
		EntityOutcome,
	}
}

// IsValid checks if the entity type is valid
func (t EntityType) IsValid() bool {
	switch t {
	case EntityClientProfile,
		EntityObjection,
		EntityStrategy,
		EntityTechnique,
		EntityOutcome:
		return true
	default:
		return false
	}
}

// String returns the string representation of the entity type
func (t EntityType) String() string {
	return string(t)
}

// ParseEntityType parses a string into an EntityType
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid entity type: %s", s)
	}
	return t, nil
}
