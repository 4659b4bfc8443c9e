package models

import "fmt"

// UnitClass groups units that are mutually convertible
type UnitClass string

const (
	ClassMass   UnitClass = "mass"
	ClassVolume UnitClass = "volume"
	ClassCount  UnitClass = "count"
)

// Unit represents a canonical unit of measurement
type Unit string

const (
	// Mass units
	UnitGram     Unit = "g"
	UnitKilogram Unit = "kg"

	// Volume units
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"

	// Count units
	UnitPiece  Unit = "pcs"
	UnitEgg    Unit = "butir"
	UnitAnimal Unit = "ekor"
	UnitPack   Unit = "bungkus"
)

// unitInfo carries the class and the factor to the class base unit
// (g for mass, ml for volume, 1 for count).
type unitInfo struct {
	class  UnitClass
	factor float64
}

var units = map[Unit]unitInfo{
	UnitGram:       {ClassMass, 1},
	UnitKilogram:   {ClassMass, 1000},
	UnitMilliliter: {ClassVolume, 1},
	UnitLiter:      {ClassVolume, 1000},
	UnitPiece:      {ClassCount, 1},
	UnitEgg:        {ClassCount, 1},
	UnitAnimal:     {ClassCount, 1},
	UnitPack:       {ClassCount, 1},
}

// DefaultUnit returns the unit used when an utterance carries no unit token.
func DefaultUnit(class UnitClass) Unit {
	switch class {
	case ClassMass:
		return UnitGram
	case ClassVolume:
		return UnitMilliliter
	default:
		return UnitPiece
	}
}

// Class returns the unit class of u, or an error for unrecognized units.
func (u Unit) Class() (UnitClass, error) {
	info, ok := units[u]
	if !ok {
		return "", fmt.Errorf("unrecognized unit %q", u)
	}
	return info.class, nil
}

// Quantity is a numeric amount paired with a unit.
type Quantity struct {
	Amount float64 `json:"amount"`
	Unit   Unit    `json:"unit"`
}

// Class returns the unit class of the quantity.
func (q Quantity) Class() (UnitClass, error) {
	return q.Unit.Class()
}

// ConvertTo converts the quantity to the target unit. Conversion across
// unit classes is an error, never a silent coercion.
func (q Quantity) ConvertTo(target Unit) (Quantity, error) {
	from, ok := units[q.Unit]
	if !ok {
		return Quantity{}, fmt.Errorf("unrecognized unit %q", q.Unit)
	}
	to, ok := units[target]
	if !ok {
		return Quantity{}, fmt.Errorf("unrecognized unit %q", target)
	}
	if from.class != to.class {
		return Quantity{}, fmt.Errorf("cannot convert %s (%s) to %s (%s)", q.Unit, from.class, target, to.class)
	}
	return Quantity{Amount: q.Amount * from.factor / to.factor, Unit: target}, nil
}

func (q Quantity) String() string {
	return fmt.Sprintf("%g %s", q.Amount, q.Unit)
}
