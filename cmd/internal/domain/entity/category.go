package entity

// Category is a topical partition of the creator's recorded content.
type Category string

const (
	CategoryMemories Category = "memories"
	CategoryMedical  Category = "medical"
	CategoryMoney    Category = "money"
	CategoryProperty Category = "property"
	CategoryFuneral  Category = "funeral"
	CategoryDigital  Category = "digital"
	CategoryMessages Category = "messages"
	CategoryOther    Category = "other"
)

// CategoryOneOf is the validator `oneof` parameter matching AllCategories.
const CategoryOneOf = "memories medical money property funeral digital messages other"

var allCategories = []Category{
	CategoryMemories,
	CategoryMedical,
	CategoryMoney,
	CategoryProperty,
	CategoryFuneral,
	CategoryDigital,
	CategoryMessages,
	CategoryOther,
}

// AllCategories returns a fresh copy of the catalog, in display order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}
