package domain

import "path"

// Format is an RDF serialization accepted by the loader.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
)

var extensionFormats = map[string]Format{
	".ttl": FormatTurtle,
	".nt":  FormatNTriples,
}

// FormatFromKey derives the RDF format from an object key's file extension.
// Unknown extensions are an error, never a default.
func FormatFromKey(key string) (Format, error) {
	ext := path.Ext(key)
	if format, ok := extensionFormats[ext]; ok {
		return format, nil
	}
	return "", NewInputError(ErrUnsupportedFormat, "Unsupported RDF extension %s", ext)
}
