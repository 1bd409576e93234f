package schema

// BookTable represents the 'catalog.book' table
type BookTable struct {
	Table       string
	ID          string
	Title       string
	Author      string
	Year        string
	Genre       string
	Pages       string
	Available   string
	ISBN        string
	Description string
	Extra       string
	CreatedAt   string
	UpdatedAt   string
}

// Book is the schema definition for catalog.book
var Book = BookTable{
	Table:       "catalog.book",
	ID:          "id",
	Title:       "title",
	Author:      "author",
	Year:        "year",
	Genre:       "genre",
	Pages:       "pages",
	Available:   "available",
	ISBN:        "isbn",
	Description: "description",
	Extra:       "extra",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t BookTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Author, t.Year, t.Genre, t.Pages,
		t.Available, t.ISBN, t.Description, t.Extra,
		t.CreatedAt, t.UpdatedAt,
	}
}
