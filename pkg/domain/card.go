package domain

// Card is a single item inside a collection.
type Card struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Rarity       string `json:"rarity"`
	IsPublic     bool   `json:"isPublic"`
	ImageRef     string `json:"imageUrl"`
	CollectionID int64  `json:"collectionId"`
}

// DefaultRarity is used when a card form leaves rarity unset.
const DefaultRarity = "common"

// Rarities is the closed set of card rarities, lowest first.
var Rarities = []string{
	"common",
	"uncommon",
	"rare",
	"epic",
	"legendary",
}

var raritySet = func() map[string]bool {
	m := make(map[string]bool, len(Rarities))
	for _, r := range Rarities {
		m[r] = true
	}
	return m
}()

// ValidRarity returns true if r is a known card rarity.
func ValidRarity(r string) bool {
	return raritySet[r]
}

// NextRarity cycles through Rarities; step is +1 or -1.
func NextRarity(current string, step int) string {
	idx := 0
	for i, r := range Rarities {
		if r == current {
			idx = i
			break
		}
	}
	n := len(Rarities)
	return Rarities[((idx+step)%n+n)%n]
}
