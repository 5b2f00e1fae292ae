package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/maxharris/polymono/internal/board"
	"github.com/maxharris/polymono/internal/models"
)

// railroadRent indexed by (railroads held by the owner - 1).
var railroadRent = [4]int{25, 50, 100, 200}

func groupProperties(group string, all []*models.Property) []*models.Property {
	var out []*models.Property
	for _, p := range all {
		if p.Kind == models.KindOrdinary && p.ColorGroup == group {
			out = append(out, p)
		}
	}
	return out
}

func ownedKindCount(owner uuid.UUID, kind models.PropertyKind, all []*models.Property) int {
	n := 0
	for _, p := range all {
		if p.Kind == kind && p.OwnedBy(owner) {
			n++
		}
	}
	return n
}

func ownsFullGroup(owner uuid.UUID, group string, all []*models.Property) bool {
	for _, p := range groupProperties(group, all) {
		if !p.OwnedBy(owner) {
			return false
		}
	}
	return true
}

// rentFor computes the rent owed for landing on prop. diceTotal feeds the
// utility multiplier; pass 0 to get the bare multiplier (UI display).
// Mortgaged or bank-owned spaces charge nothing.
func rentFor(prop *models.Property, all []*models.Property, diceTotal int) int {
	if prop.OwnerID == nil || prop.Mortgaged {
		return 0
	}
	owner := *prop.OwnerID
	switch prop.Kind {
	case models.KindOrdinary:
		if prop.HouseCount == 0 && ownsFullGroup(owner, prop.ColorGroup, all) {
			return prop.Rent[models.RentBase] * 2
		}
		return prop.Rent.AtHouses(prop.HouseCount)
	case models.KindRailroad:
		n := ownedKindCount(owner, models.KindRailroad, all)
		if n == 0 {
			return 0
		}
		return railroadRent[n-1]
	case models.KindUtility:
		mult := 4
		if ownedKindCount(owner, models.KindUtility, all) == 2 {
			mult = 10
		}
		if diceTotal <= 0 {
			return mult
		}
		return mult * diceTotal
	default:
		return 0
	}
}

// BuyProperty purchases the unowned property the active player is standing on.
func (e *Engine) BuyProperty(ctx context.Context, userID uuid.UUID, propertyID int) error {
	return e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		player, err := currentPlayer(ctx, s, game, userID)
		if err != nil {
			return err
		}
		prop, err := s.PropertyByID(ctx, propertyID)
		if err != nil {
			return err
		}
		if !prop.Ownable() {
			return ruleErrorf("%s cannot be purchased", prop.Name)
		}
		if prop.OwnerID != nil {
			return ruleErrorf("%s is already owned", prop.Name)
		}
		if prop.Mortgaged {
			return ruleErrorf("%s is mortgaged", prop.Name)
		}
		if player.Position != prop.Position {
			return ruleErrorf("you are not on %s", prop.Name)
		}
		if player.Money < prop.Price {
			return ruleErrorf("insufficient funds: %s costs $%d", prop.Name, prop.Price)
		}

		player.Money -= prop.Price
		prop.OwnerID = &player.ID
		if err := s.UpdatePlayer(ctx, player); err != nil {
			return err
		}
		if err := s.UpdateProperty(ctx, prop); err != nil {
			return err
		}

		buf.publish(EventPropertyPurchased, map[string]any{
			"user_id":     userID,
			"player_id":   player.ID,
			"property_id": prop.ID,
			"property":    prop.Name,
			"price":       prop.Price,
			"money":       player.Money,
		})
		buf.record("buy_property", userID, map[string]any{
			"property_id": prop.ID, "price": prop.Price,
		})
		return nil
	})
}

// canBuildAt validates that one more house may go on prop given the group's
// current counts. counts is keyed by position and reflects any houses already
// placed earlier in the same batch.
func canBuildAt(prop *models.Property, group []*models.Property, counts map[int]int) error {
	cur := counts[prop.Position]
	if cur >= houseMax {
		return ruleErrorf("%s already has a hotel", prop.Name)
	}
	min := houseMax
	for _, g := range group {
		if g.Position == prop.Position {
			continue
		}
		if c := counts[g.Position]; c < min {
			min = c
		}
	}
	if len(group) > 1 && cur+1 > min+1 {
		return ruleErrorf("build evenly: %s would be more than one house ahead of its group", prop.Name)
	}
	return nil
}

// BuyHouses builds count houses (1-5, 5 completing a hotel) on an ordinary
// property. The owner must hold the whole color group unmortgaged, and even
// building is enforced at every intermediate step of the batch.
func (e *Engine) BuyHouses(ctx context.Context, userID uuid.UUID, propertyID, count int) error {
	return e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		player, err := currentPlayer(ctx, s, game, userID)
		if err != nil {
			return err
		}
		if count < 1 || count > houseMax {
			return ruleErrorf("house count must be between 1 and %d", houseMax)
		}
		prop, err := s.PropertyByID(ctx, propertyID)
		if err != nil {
			return err
		}
		if prop.Kind != models.KindOrdinary {
			return ruleErrorf("houses can only be built on color-group properties")
		}
		if !prop.OwnedBy(player.ID) {
			return ruleErrorf("you do not own %s", prop.Name)
		}
		if prop.HouseCount+count > houseMax {
			return ruleErrorf("%s can take at most %d more houses", prop.Name, houseMax-prop.HouseCount)
		}

		all, err := s.Properties(ctx)
		if err != nil {
			return err
		}
		group := groupProperties(prop.ColorGroup, all)
		for _, g := range group {
			if !g.OwnedBy(player.ID) {
				return ruleErrorf("you must own the whole %s group to build", prop.ColorGroup)
			}
			if g.Mortgaged {
				return ruleErrorf("%s is mortgaged; unmortgage the group before building", g.Name)
			}
		}

		counts := make(map[int]int, len(group))
		for _, g := range group {
			counts[g.Position] = g.HouseCount
		}
		for i := 0; i < count; i++ {
			if err := canBuildAt(prop, group, counts); err != nil {
				return err
			}
			counts[prop.Position]++
		}

		cost := prop.HouseCost * count
		if player.Money < cost {
			return ruleErrorf("insufficient funds: %d houses cost $%d", count, cost)
		}

		player.Money -= cost
		prop.HouseCount += count
		if err := s.UpdatePlayer(ctx, player); err != nil {
			return err
		}
		if err := s.UpdateProperty(ctx, prop); err != nil {
			return err
		}

		buf.publish(EventHousesPurchased, map[string]any{
			"user_id":     userID,
			"player_id":   player.ID,
			"property_id": prop.ID,
			"property":    prop.Name,
			"count":       count,
			"house_count": prop.HouseCount,
			"cost":        cost,
			"money":       player.Money,
		})
		buf.record("buy_houses", userID, map[string]any{
			"property_id": prop.ID, "count": count, "cost": cost,
		})
		return nil
	})
}

// spaceName is a convenience for event payloads on unowned specials.
func spaceName(pos int) string {
	if sp, ok := board.SpaceAt(pos); ok {
		return sp.Name
	}
	return ""
}
