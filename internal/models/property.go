package models

import "github.com/google/uuid"

// PropertyKind is a closed set of board-space kinds. Branching in the engine
// switches exhaustively over it so that a new kind is a compile-time change.
type PropertyKind string

const (
	KindOrdinary PropertyKind = "property"
	KindRailroad PropertyKind = "railroad"
	KindUtility  PropertyKind = "utility"
	KindSpecial  PropertyKind = "special"
)

// RentSchedule is the 7-entry rent table of an ordinary property:
// index 0 = base rent, 1 = rent with the full color set (no houses),
// 2..5 = rent at 1..4 houses, 6 = rent with a hotel.
type RentSchedule [7]int

// Rent schedule indices, see RentSchedule.
const (
	RentBase    = 0
	RentFullSet = 1
	RentHouse1  = 2
	RentHotel   = 6
)

// AtHouses returns the rent entry for a given house count (0-5, 5 = hotel).
// Index 1 (full-set rent) is skipped: the full-set premium is applied by the
// economy as a doubling of the base, matching the original rule.
func (r RentSchedule) AtHouses(houses int) int {
	if houses <= 0 {
		return r[RentBase]
	}
	if houses >= 5 {
		return r[RentHotel]
	}
	return r[RentHouse1+houses-1]
}

// Property is one of the 40 persisted board spaces. Economic fields are only
// meaningful for the ownable kinds; special spaces carry none.
type Property struct {
	ID            int          `json:"id"` // equals board position
	Position      int          `json:"position"`
	Name          string       `json:"name"`
	Kind          PropertyKind `json:"property_type"`
	ColorGroup    string       `json:"color_group,omitempty"`
	Price         int          `json:"purchase_price,omitempty"`
	Rent          RentSchedule `json:"rent_values,omitempty"`
	HouseCost     int          `json:"house_cost,omitempty"`
	MortgageValue int          `json:"mortgage_value,omitempty"`
	HouseCount    int          `json:"house_count"` // 0-5, 5 denotes a hotel
	Mortgaged     bool         `json:"is_mortgaged"`
	OwnerID       *uuid.UUID   `json:"owner_id,omitempty"` // nil = bank-owned
}

// Ownable reports whether the space can ever have an owner.
func (p *Property) Ownable() bool {
	switch p.Kind {
	case KindOrdinary, KindRailroad, KindUtility:
		return true
	default:
		return false
	}
}

// OwnedBy reports whether the property is owned by the given player.
func (p *Property) OwnedBy(playerID uuid.UUID) bool {
	return p.OwnerID != nil && *p.OwnerID == playerID
}
