package game

import (
	"fmt"
	"sort"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

type HandCategory int

const (
	HighCard HandCategory = iota
	Pair
	Svara
	Seka
)

func (c HandCategory) String() string {
	switch c {
	case Seka:
		return "seka"
	case Svara:
		return "svara"
	case Pair:
		return "pair"
	default:
		return "high_card"
	}
}

func (c HandCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// HandValue orders hands by category first, then by the category score.
type HandValue struct {
	Category HandCategory `json:"category"`
	Score    int          `json:"score"`
}

// Evaluate ranks a 3-card hand.
func Evaluate(hand []models.Card) (HandValue, error) {
	if len(hand) != 3 {
		return HandValue{}, fmt.Errorf("evaluate: hand has %d cards, want 3", len(hand))
	}

	a, b, c := hand[0], hand[1], hand[2]
	if a == b || a == c || b == c {
		return HandValue{}, fmt.Errorf("evaluate: duplicate card in %v", hand)
	}

	switch {
	case a.Rank == b.Rank && b.Rank == c.Rank:
		return HandValue{Category: Seka, Score: int(a.Rank)}, nil
	case a.Suit == b.Suit && b.Suit == c.Suit:
		return HandValue{Category: Svara, Score: a.Value() + b.Value() + c.Value()}, nil
	case a.Rank == b.Rank || a.Rank == c.Rank:
		return HandValue{Category: Pair, Score: a.Value()}, nil
	case b.Rank == c.Rank:
		return HandValue{Category: Pair, Score: b.Value()}, nil
	}

	return HandValue{Category: HighCard, Score: max(a.Value(), b.Value(), c.Value())}, nil
}

// Compare returns 1 if a beats b, -1 if b beats a and 0 on a tie.
func Compare(a, b HandValue) int {
	switch {
	case a.Category > b.Category:
		return 1
	case a.Category < b.Category:
		return -1
	case a.Score > b.Score:
		return 1
	case a.Score < b.Score:
		return -1
	}
	return 0
}

type RankedHand struct {
	PlayerID string        `json:"playerId"`
	Cards    []models.Card `json:"cards"`
	Value    HandValue     `json:"value"`
}

// Rank orders the hands best first. Players are given in seating order, which is kept
// among equal hands. The returned winners are every player tied for the best hand.
func Rank(playerIDs []string, hands map[string][]models.Card) ([]RankedHand, []string, error) {
	if len(playerIDs) == 0 {
		return nil, nil, fmt.Errorf("rank: no hands")
	}

	ranked := make([]RankedHand, 0, len(playerIDs))
	for _, id := range playerIDs {
		value, err := Evaluate(hands[id])
		if err != nil {
			return nil, nil, fmt.Errorf("rank %s: %w", id, err)
		}
		ranked = append(ranked, RankedHand{PlayerID: id, Cards: hands[id], Value: value})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return Compare(ranked[i].Value, ranked[j].Value) > 0
	})

	winners := []string{ranked[0].PlayerID}
	for _, r := range ranked[1:] {
		if Compare(r.Value, ranked[0].Value) != 0 {
			break
		}
		winners = append(winners, r.PlayerID)
	}

	return ranked, winners, nil
}
