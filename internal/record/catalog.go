package record

// CatalogEntry is a declared course template.
type CatalogEntry struct {
	Name        string
	Coefficient float32
}

// Catalog holds the courses declared in the MATIERES section. It is a
// read-only template: enrolling a student copies the coefficient into a new
// Course and never shares the entry.
type Catalog struct {
	entries []CatalogEntry
}

func (c *Catalog) Declare(name string, coefficient float32) {
	c.entries = append(c.entries, CatalogEntry{Name: name, Coefficient: coefficient})
}

// Coefficient resolves name to the coefficient of its first declaration.
func (c *Catalog) Coefficient(name string) (float32, bool) {
	for _, e := range c.entries {
		if e.Name == name {
			return e.Coefficient, true
		}
	}
	return 0, false
}

func (c *Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Len() int {
	return len(c.entries)
}
