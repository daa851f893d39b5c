package types

import "fmt"

// RelationshipType represents the kind of a directed edge between entities.
// Edges form the layering ClientProfile → Objection → Strategy → Technique → Outcome.
type RelationshipType string

const (
	RelHasObjection RelationshipType = "HAS_OBJECTION"
	RelAddressedBy  RelationshipType = "ADDRESSED_BY"
	RelUses         RelationshipType = "USES"
	RelResultsIn    RelationshipType = "RESULTS_IN"
)

// IsValid checks if the relationship type is valid
func (t RelationshipType) IsValid() bool {
	switch t {
	case RelHasObjection, RelAddressedBy, RelUses, RelResultsIn:
		return true
	default:
		return false
	}
}

// String returns the string representation of the relationship type
func (t RelationshipType) String() string {
	return string(t)
}

// ParseRelationshipType parses a string into a RelationshipType
func ParseRelationshipType(s string) (RelationshipType, error) {
	t := RelationshipType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid relationship type: %s", s)
	}
	return t, nil
}

// Direction selects which end of an edge a neighbor query starts from
type Direction string

const (
	// DirectionOut follows edges from source to target
	DirectionOut Direction = "out"
	// DirectionIn follows edges from target to source
	DirectionIn Direction = "in"
)
