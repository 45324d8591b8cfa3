package feed

// Entry is one syndicated article, normalised from either Atom or RSS.
type Entry struct {
	ID        string // explicit identifier, falls back to Link
	Title     string // entity-decoded, trimmed
	Link      string // canonical article URL, the dedup key
	Updated   string // raw timestamp text, may be empty
	Author    string
	BodyPlain string // tag-stripped, whitespace-collapsed, at most MaxBodyRunes
	Summary   string // raw summary, may carry HTML
	Content   string // raw content, may carry HTML
}
