package models

// Store is a retailer that deals are posted against.
type Store struct {
	ID              string `firestore:"-" json:"id"`
	Name            string `firestore:"name" json:"name"`
	Slug            string `firestore:"slug" json:"slug"`
	Domain          string `firestore:"domain,omitempty" json:"domain,omitempty"`
	LogoURL         string `firestore:"logoURL,omitempty" json:"logoURL,omitempty"`
	ActiveDealCount int    `firestore:"activeDealCount" json:"activeDealCount"`
}

// Ref returns the copy of the store that gets embedded in deals.
func (s Store) Ref() StoreRef {
	return StoreRef{ID: s.ID, Name: s.Name, Slug: s.Slug, Domain: s.Domain}
}

// Category groups deals for browsing.
type Category struct {
	ID        string `firestore:"-" json:"id"`
	Name      string `firestore:"name" json:"name"`
	Slug      string `firestore:"slug" json:"slug"`
	Icon      string `firestore:"icon,omitempty" json:"icon,omitempty"`
	DealCount int    `firestore:"dealCount" json:"dealCount"`
}

// Ref returns the copy of the category that gets embedded in deals.
func (c Category) Ref() CategoryRef {
	return CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

// CategoryGuesses are the category slugs the extraction model may pick from.
var CategoryGuesses = []string{
	"electronics", "fashion", "home", "food", "travel",
	"beauty", "sports", "entertainment", "services", "other",
}
