// Package codec selects the JSON encoder used for snapshot blobs and HTTP
// payloads.
//
// Snapshot blob names carry no codec marker; a reader must use the codec
// the writer was configured with. Both built-in codecs produce standard
// JSON, so they are interchangeable in practice.
package codec

import (
	"fmt"
	"sort"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, error) {
	switch name {
	case "json":
		return JSON{}, nil
	case "go-json", "":
		return GoJSON{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q (known: %v)", name, Names())
	}
}

// Names lists the built-in codec names.
func Names() []string {
	names := []string{JSON{}.Name(), GoJSON{}.Name()}
	sort.Strings(names)
	return names
}
