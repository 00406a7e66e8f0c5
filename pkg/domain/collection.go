package domain

// Collection is a named set of cards owned by a user.
type Collection struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsPublic    bool   `json:"isPublic"`
	ImageRef    string `json:"imageUrl"`
	CardsCount  int    `json:"cardsCount"`
}

// PlaceholderCollection stands in for a collection whose details the
// backend did not return alongside its cards.
func PlaceholderCollection(id int64, cardsCount int) Collection {
	return Collection{
		ID:          id,
		Title:       "Collection",
		Description: "No description",
		Category:    "General",
		CardsCount:  cardsCount,
	}
}
