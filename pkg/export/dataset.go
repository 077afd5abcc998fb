package export

import "github.com/pkg/errors"

// Dataset defines tabular export content.
type Dataset struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     []map[string]string
	// GroupBy names a header whose value starts a new visual block when it changes.
	GroupBy string
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return errors.New("export requires at least one header")
	}
	if d.GroupBy == "" {
		return nil
	}
	for _, h := range d.Headers {
		if h == d.GroupBy {
			return nil
		}
	}
	return errors.Errorf("group column %q is not a header", d.GroupBy)
}

// Exporter renders a dataset into a file body.
type Exporter interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}
