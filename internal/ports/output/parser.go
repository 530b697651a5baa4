package output

import (
	"io"

	"github.com/mfriedel/looksel/internal/domain"
)

// FootprintParser defines the secondary port for decoding footprint
// catalog files into domain records.
type FootprintParser interface {
	// Parse decodes footprints from r. Malformed records are skipped and
	// counted, not fatal; the error covers unreadable input only.
	Parse(r io.Reader) (footprints []domain.Footprint, skipped int, err error)
}
