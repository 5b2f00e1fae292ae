// Package board holds the immutable description of the 40-space board and the
// two draw decks. It is pure data: nothing here mutates state or touches the
// store.
package board

import "github.com/maxharris/polymono/internal/models"

// Size is the number of board positions.
const Size = 40

// Landmark positions.
const (
	GoPosition       = 0
	JailPosition     = 10
	GoToJailPosition = 30
)

// Special classifies the non-ownable spaces for the landing resolver.
type Special int

const (
	SpecialNone Special = iota
	SpecialGo
	SpecialCommunityFund
	SpecialOpportunity
	SpecialJailVisit
	SpecialFreeParking
	SpecialGoToJail
	SpecialIncomeTax
	SpecialLuxuryTax
)

var specials = map[int]Special{
	0:  SpecialGo,
	2:  SpecialCommunityFund,
	4:  SpecialIncomeTax,
	7:  SpecialOpportunity,
	10: SpecialJailVisit,
	17: SpecialCommunityFund,
	20: SpecialFreeParking,
	22: SpecialOpportunity,
	30: SpecialGoToJail,
	33: SpecialCommunityFund,
	36: SpecialOpportunity,
	38: SpecialLuxuryTax,
}

// SpecialAt returns the special-space classification for a position, or
// SpecialNone for ownable spaces.
func SpecialAt(pos int) Special {
	return specials[pos]
}

func ordinary(pos int, name, group string, price int, rent models.RentSchedule, houseCost, mortgage int) models.Property {
	return models.Property{
		ID: pos, Position: pos, Name: name, Kind: models.KindOrdinary,
		ColorGroup: group, Price: price, Rent: rent,
		HouseCost: houseCost, MortgageValue: mortgage,
	}
}

func railroad(pos int, name string) models.Property {
	return models.Property{
		ID: pos, Position: pos, Name: name, Kind: models.KindRailroad,
		ColorGroup: "railroad", Price: 200, MortgageValue: 100,
	}
}

func utility(pos int, name string) models.Property {
	return models.Property{
		ID: pos, Position: pos, Name: name, Kind: models.KindUtility,
		ColorGroup: "utility", Price: 150, MortgageValue: 75,
	}
}

func special(pos int, name string) models.Property {
	return models.Property{ID: pos, Position: pos, Name: name, Kind: models.KindSpecial}
}

// catalog is the full Manhattan-edition board, position order.
var catalog = []models.Property{
	special(0, "New Year's Eve"),
	ordinary(1, "Alphabet City", "brown", 60, models.RentSchedule{2, 4, 10, 30, 90, 160, 250}, 50, 30),
	special(2, "Community Fund"),
	ordinary(3, "Meatpacking District", "brown", 60, models.RentSchedule{4, 8, 20, 60, 180, 320, 450}, 50, 30),
	special(4, "City Income Tax"),
	railroad(5, "Penn Station"),
	ordinary(6, "Chinatown", "lightblue", 100, models.RentSchedule{6, 12, 30, 90, 270, 400, 550}, 50, 50),
	special(7, "Opportunity"),
	ordinary(8, "Lower East Side", "lightblue", 100, models.RentSchedule{6, 12, 30, 90, 270, 400, 550}, 50, 50),
	ordinary(9, "East Village", "lightblue", 120, models.RentSchedule{8, 16, 40, 100, 300, 450, 600}, 50, 60),
	special(10, "Rikers"),
	ordinary(11, "Chelsea", "pink", 140, models.RentSchedule{10, 20, 50, 150, 450, 625, 750}, 100, 70),
	utility(12, "Con Edison"),
	ordinary(13, "Flatiron District", "pink", 140, models.RentSchedule{10, 20, 50, 150, 450, 625, 750}, 100, 70),
	ordinary(14, "Gramercy Park", "pink", 160, models.RentSchedule{12, 24, 60, 180, 500, 700, 900}, 100, 80),
	railroad(15, "Grand Central Station"),
	ordinary(16, "Greenwich Village", "orange", 180, models.RentSchedule{14, 28, 70, 200, 550, 750, 950}, 100, 90),
	special(17, "Community Fund"),
	ordinary(18, "Hell's Kitchen", "orange", 180, models.RentSchedule{14, 28, 70, 200, 550, 750, 950}, 100, 90),
	ordinary(19, "Tribeca", "orange", 200, models.RentSchedule{16, 32, 80, 220, 600, 800, 1000}, 100, 100),
	special(20, "Lost and Found"),
	ordinary(21, "SoHo", "red", 220, models.RentSchedule{18, 36, 90, 250, 700, 875, 1050}, 150, 110),
	special(22, "Opportunity"),
	ordinary(23, "Theater District", "red", 220, models.RentSchedule{18, 36, 90, 250, 700, 875, 1050}, 150, 110),
	ordinary(24, "Bryant Park", "red", 240, models.RentSchedule{20, 40, 100, 300, 750, 925, 1100}, 150, 120),
	railroad(25, "Times Square Station"),
	ordinary(26, "Lincoln Center", "yellow", 260, models.RentSchedule{22, 44, 110, 330, 800, 975, 1150}, 150, 130),
	ordinary(27, "Columbus Circle", "yellow", 260, models.RentSchedule{22, 44, 110, 330, 800, 975, 1150}, 150, 130),
	utility(28, "NYC Steam System"),
	ordinary(29, "Wall Street", "yellow", 280, models.RentSchedule{24, 48, 120, 360, 850, 1025, 1200}, 150, 140),
	special(30, "Arrested by NYPD"),
	ordinary(31, "Upper West Side", "green", 300, models.RentSchedule{26, 52, 130, 390, 900, 1100, 1275}, 200, 150),
	ordinary(32, "Highline", "green", 300, models.RentSchedule{26, 52, 130, 390, 900, 1100, 1275}, 200, 150),
	special(33, "Community Fund"),
	ordinary(34, "Upper East Side", "green", 320, models.RentSchedule{28, 56, 150, 450, 1000, 1200, 1400}, 200, 160),
	railroad(35, "Union Square Station"),
	special(36, "Opportunity"),
	ordinary(37, "Billionaire's Row", "darkblue", 350, models.RentSchedule{35, 70, 175, 500, 1100, 1300, 1500}, 200, 175),
	special(38, "Penthouse Luxury Tax"),
	ordinary(39, "One World Trade Center", "darkblue", 400, models.RentSchedule{50, 100, 200, 600, 1400, 1700, 2000}, 200, 200),
}

// Catalog returns a fresh copy of all 40 spaces in position order. Callers own
// the returned slice; the catalog itself is never handed out mutable.
func Catalog() []models.Property {
	out := make([]models.Property, len(catalog))
	copy(out, catalog)
	return out
}

// SpaceAt returns a copy of the space at the given position.
func SpaceAt(pos int) (models.Property, bool) {
	if pos < 0 || pos >= len(catalog) {
		return models.Property{}, false
	}
	return catalog[pos], true
}

// Railroads returns the railroad positions in board order.
func Railroads() []int { return []int{5, 15, 25, 35} }

// Utilities returns the utility positions in board order.
func Utilities() []int { return []int{12, 28} }

// GroupMembers returns the positions of every ordinary property in the given
// color group.
func GroupMembers(group string) []int {
	var out []int
	for _, p := range catalog {
		if p.Kind == models.KindOrdinary && p.ColorGroup == group {
			out = append(out, p.Position)
		}
	}
	return out
}
