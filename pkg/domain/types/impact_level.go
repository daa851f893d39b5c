package types

// ImpactLevel grades the severity of an extracted risk
type ImpactLevel string

const (
	ImpactHigh   ImpactLevel = "High"
	ImpactMedium ImpactLevel = "Medium"
	ImpactLow    ImpactLevel = "Low"
)

// IsValid checks if the impact level is valid
func (l ImpactLevel) IsValid() bool {
	switch l {
	case ImpactHigh, ImpactMedium, ImpactLow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the impact level
func (l ImpactLevel) String() string {
	return string(l)
}
