package models

import (
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"
	"strings"
)

// Suit represents a card suit
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Rank is the card rank ordinal, Ace high.
type Rank int

const (
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

const DeckSize = 24

var (
	suits = []Suit{Hearts, Diamonds, Clubs, Spades}
	ranks = []Rank{Nine, Ten, Jack, Queen, King, Ace}
)

// Card is an immutable playing card.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// Value returns the Seka scoring value of the card: 9=9, 10=10, J=2, Q=3, K=4, A=11.
func (c Card) Value() int {
	switch c.Rank {
	case Nine:
		return 9
	case Ten:
		return 10
	case Jack:
		return 2
	case Queen:
		return 3
	case King:
		return 4
	case Ace:
		return 11
	}
	return 0
}

func (c Card) String() string {
	return rankLabel(c.Rank) + suitSymbol(c.Suit)
}

func rankLabel(r Rank) string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	return fmt.Sprint(int(r))
}

func suitSymbol(s Suit) string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	}
	return "?"
}

// ParseCard parses short card notation such as "Kh", "10d", "9♣" or "A♠".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}

	var suit Suit
	var rankPart string
	switch {
	case strings.HasSuffix(s, "♥"):
		suit, rankPart = Hearts, strings.TrimSuffix(s, "♥")
	case strings.HasSuffix(s, "♦"):
		suit, rankPart = Diamonds, strings.TrimSuffix(s, "♦")
	case strings.HasSuffix(s, "♣"):
		suit, rankPart = Clubs, strings.TrimSuffix(s, "♣")
	case strings.HasSuffix(s, "♠"):
		suit, rankPart = Spades, strings.TrimSuffix(s, "♠")
	default:
		rankPart = s[:len(s)-1]
		switch strings.ToLower(s[len(s)-1:]) {
		case "h":
			suit = Hearts
		case "d":
			suit = Diamonds
		case "c":
			suit = Clubs
		case "s":
			suit = Spades
		default:
			return Card{}, fmt.Errorf("invalid suit in card %q", s)
		}
	}

	var rank Rank
	switch strings.ToUpper(rankPart) {
	case "9":
		rank = Nine
	case "10", "T":
		rank = Ten
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	case "A":
		rank = Ace
	default:
		return Card{}, fmt.Errorf("invalid rank in card %q", s)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// MustParseCards parses a space separated list of cards and panics on error.
func MustParseCards(s string) []Card {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			panic(err)
		}
		cards = append(cards, c)
	}
	return cards
}

// FullDeck returns the 24 Seka cards in a fixed order.
func FullDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range suits {
		for _, rank := range ranks {
			cards = append(cards, Card{Rank: rank, Suit: suit})
		}
	}
	return cards
}

// Deck is the ordered stack a table deals from. Cards are dealt from the top (index 0).
type Deck struct {
	cards []Card
}

// NewShuffledDeck creates and returns a freshly shuffled 24-card deck
func NewShuffledDeck() *Deck {
	deck := &Deck{cards: FullDeck()}
	deck.Shuffle()
	return deck
}

// NewDeckFromCards builds a deck that deals the given cards in order.
func NewDeckFromCards(cards []Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

// Shuffle randomizes the order of cards in the deck
func (d *Deck) Shuffle() {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic(fmt.Sprintf("deck: reading random seed: %v", err))
	}

	rng := rand.New(rand.NewChaCha8(seed))
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns the top n cards.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("deal %d of %d: %w", n, len(d.cards), ErrInsufficientCards)
	}

	dealt := append([]Card(nil), d.cards[:n]...)
	d.cards = d.cards[n:]
	return dealt, nil
}

func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the undealt cards.
func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}
