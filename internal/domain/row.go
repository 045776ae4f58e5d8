package domain

// Row is one input record keyed by column header.
type Row struct {
	Index  int
	Source string
	Values map[string]string
}

func (r Row) Get(col string) (string, bool) {
	if r.Values == nil {
		return "", false
	}
	v, ok := r.Values[col]
	return v, ok
}
