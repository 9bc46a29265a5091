package enums

import "fmt"

// MovementType classifies an inventory movement ledger entry.
type MovementType string

const (
	MovementTypeSale       MovementType = "sale"
	MovementTypePurchase   MovementType = "purchase"
	MovementTypeReturn     MovementType = "return"
	MovementTypeAdjustment MovementType = "adjustment"
	MovementTypeWaste      MovementType = "waste"
	// MovementTypeClamp records the unapplied remainder when a decrement
	// would have driven the quantity below zero.
	MovementTypeClamp MovementType = "clamp"
)

var validMovementTypes = []MovementType{
	MovementTypeSale,
	MovementTypePurchase,
	MovementTypeReturn,
	MovementTypeAdjustment,
	MovementTypeWaste,
	MovementTypeClamp,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
