package core

// DefaultCategories are inserted when the category table is empty.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Food & Dining", Color: "#FF6B6B"},
		{Name: "Transportation", Color: "#4ECDC4"},
		{Name: "Shopping", Color: "#45B7D1"},
		{Name: "Entertainment", Color: "#96CEB4"},
		{Name: "Utilities", Color: "#FFEAA7"},
		{Name: "Healthcare", Color: "#DDA0DD"},
		{Name: "Education", Color: "#98D8C8"},
		{Name: "Other", Color: "#F7DC6F"},
	}
}
