// Package schema pins the column contracts of the two pipeline inputs.
// The contracts are implicit in the source files (there is no schema registry
// upstream); declaring them here gives ingest one place to enforce required
// columns and gives readers one place to see what the pipeline consumes.
package schema

type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // "text" | "float" | "int"
	Required bool   `json:"required,omitempty"`
}

type Contract struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Required returns the names of all required fields, in declaration order.
func (c Contract) Required() []string {
	var out []string
	for _, f := range c.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Types returns a field-name → type map for coercion.
func (c Contract) Types() map[string]string {
	out := make(map[string]string, len(c.Fields))
	for _, f := range c.Fields {
		out[f.Name] = f.Type
	}
	return out
}

// Metadata is the book metadata input: one row per book, keyed by
// parent_asin. publisher_date is free text; its parsable portion becomes
// published_date during ingest.
var Metadata = Contract{
	Name: "books_metadata",
	Fields: []Field{
		{Name: "parent_asin", Type: "text", Required: true},
		{Name: "title", Type: "text", Required: true},
		{Name: "author_name", Type: "text"},
		{Name: "publisher", Type: "text"},
		{Name: "price", Type: "float", Required: true},
		{Name: "price_numeric", Type: "float"},
		{Name: "page_count", Type: "float"},
		{Name: "format", Type: "text"},
		{Name: "category_level_3_detail", Type: "text"},
		{Name: "publisher_date", Type: "text", Required: true},
	},
}

// Reviews is the review input: one row per review, many rows may share a
// parent_asin (one-to-many from metadata to reviews).
var Reviews = Contract{
	Name: "books_reviews",
	Fields: []Field{
		{Name: "asin", Type: "text", Required: true},
		{Name: "parent_asin", Type: "text", Required: true},
		{Name: "rating", Type: "float", Required: true},
	},
}
