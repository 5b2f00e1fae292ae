package board

import "github.com/maxharris/polymono/internal/models"

// DeckType selects one of the two fixed draw decks.
type DeckType string

const (
	DeckOpportunity   DeckType = "opportunity"    // drawn on Opportunity spaces
	DeckCommunityFund DeckType = "community_fund" // drawn on Community Fund spaces
)

// EffectKind is the closed set of card effects. The processor switches
// exhaustively over it.
type EffectKind string

const (
	EffectMoney        EffectKind = "money"          // Amount credited to drawer (may be negative)
	EffectMoneyToAll   EffectKind = "money_to_all"   // drawer pays Amount to each other player
	EffectMoneyFromAll EffectKind = "money_from_all" // each other player pays up to Amount to drawer
	EffectJail         EffectKind = "jail"
	EffectJailFree     EffectKind = "jail_free"
	EffectAdvanceTo    EffectKind = "advance_to"      // Position is the absolute target
	EffectAdvanceNear  EffectKind = "advance_nearest" // Nearest is railroad or utility
	EffectMoveBack     EffectKind = "move_back"       // Spaces back
	EffectRepairs      EffectKind = "repairs"         // HouseFee per house, HotelFee per hotel
)

// Card is one immutable deck entry. Only the fields relevant to Kind are set.
type Card struct {
	Text     string
	Kind     EffectKind
	Amount   int
	Position int
	Spaces   int
	Nearest  models.PropertyKind
	HouseFee int
	HotelFee int
}

var opportunityDeck = []Card{
	{Kind: EffectAdvanceTo, Position: 0, Text: "Advance to New Year's Eve (Collect $200)"},
	{Kind: EffectAdvanceTo, Position: 24, Text: "Advance to Bryant Park"},
	{Kind: EffectAdvanceTo, Position: 11, Text: "Advance to Chelsea"},
	{Kind: EffectAdvanceNear, Nearest: models.KindRailroad, Text: "Advance token to nearest Subway Station. If unowned, you may buy it from the Bank. If owned, pay owner twice the rental to which they are otherwise entitled"},
	{Kind: EffectAdvanceNear, Nearest: models.KindRailroad, Text: "Advance token to nearest Subway Station. If unowned, you may buy it from the Bank. If owned, pay owner twice the rental to which they are otherwise entitled"},
	{Kind: EffectMoveBack, Spaces: 3, Text: "Go back three spaces"},
	{Kind: EffectJail, Text: "Go directly to Rikers Island. Do not pass New Year's Eve, do not collect $200"},
	{Kind: EffectJailFree, Text: "Get out of Rikers Island free. This card may be kept until needed or sold"},
	{Kind: EffectMoney, Amount: 50, Text: "Bank pays you a dividend of $50"},
	{Kind: EffectMoney, Amount: -15, Text: "Speeding fine $15"},
	{Kind: EffectAdvanceTo, Position: 25, Text: "Advance to Times Square Station. If you pass New Year's Eve, collect $200"},
	{Kind: EffectMoneyToAll, Amount: 50, Text: "You have been elected Mayor. Pay each player $50"},
	{Kind: EffectMoney, Amount: 150, Text: "Your building loan matures. Collect $150"},
	{Kind: EffectMoney, Amount: -15, Text: "Pay a Jaywalking Fine of $15"},
	{Kind: EffectRepairs, HouseFee: 25, HotelFee: 100, Text: "Make general repairs on all your property. For each house pay $25. For each hotel pay $100"},
	{Kind: EffectAdvanceTo, Position: 39, Text: "Advance to One World Trade Center"},
	{Kind: EffectAdvanceTo, Position: 32, Text: "Take a walk on the High Line. Advance to Highline"},
	{Kind: EffectAdvanceTo, Position: 1, Text: "Advance to Alphabet City. If you pass New Year's Eve, collect $200"},
}

var communityFundDeck = []Card{
	{Kind: EffectAdvanceTo, Position: 0, Text: "Time flies... Advance to New Year's Eve (Collect $200)"},
	{Kind: EffectMoney, Amount: 200, Text: "Bank error in your favor. Collect $200"},
	{Kind: EffectMoney, Amount: -50, Text: "Doctor's fee. Pay $50"},
	{Kind: EffectMoney, Amount: 50, Text: "From sale of stock you get $50"},
	{Kind: EffectJailFree, Text: "Get out of Rikers Island free. This card may be kept until needed or sold"},
	{Kind: EffectJail, Text: "Go directly to Rikers Island. Do not pass New Year's Eve, do not collect $200"},
	{Kind: EffectMoneyFromAll, Amount: 10, Text: "It is your birthday. Collect $10 from every player"},
	{Kind: EffectMoney, Amount: 100, Text: "You inherit a Rent-Controlled Apartment. Collect $100"},
	{Kind: EffectMoney, Amount: 100, Text: "You fell in a pothole! Collect $100"},
	{Kind: EffectMoneyFromAll, Amount: 10, Text: "It is your birthday. Collect $10 from each player"},
	{Kind: EffectMoney, Amount: 100, Text: "Life insurance matures. Collect $100"},
	{Kind: EffectMoney, Amount: -100, Text: "Pay hospital fees of $100"},
	{Kind: EffectMoney, Amount: -50, Text: "Pay for a private school. Pay $50"},
	{Kind: EffectMoney, Amount: 25, Text: "Receive $25 consultancy fee"},
	{Kind: EffectRepairs, HouseFee: 40, HotelFee: 115, Text: "You are assessed for street repairs. $40 per house. $115 per hotel"},
	{Kind: EffectMoney, Amount: 10, Text: "You have won second prize in a Broadway talent contest. Collect $10"},
	{Kind: EffectMoney, Amount: -150, Text: "Pay your Property Tax of $150"},
}

// Deck returns the fixed deck for a deck type. Draws sample uniformly with
// replacement; no removal or reshuffle state is kept.
func Deck(t DeckType) []Card {
	if t == DeckOpportunity {
		return opportunityDeck
	}
	return communityFundDeck
}
