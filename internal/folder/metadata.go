package folder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"mintwatch/internal/services"
)

// Creator is a royalty recipient listed in the metadata document.
type Creator struct {
	Address  string `json:"address"`
	Share    int    `json:"share"`
	Verified bool   `json:"verified"`
}

// Attribute is one trait of the asset. Raw holds the entry exactly as it
// appeared in the document, extra keys included.
type Attribute struct {
	TraitType string          `json:"trait_type"`
	Value     json.RawMessage `json:"value,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// Metadata is the typed view of a folder's JSON document. Fields the pipeline
// does not interpret are kept verbatim and survive the metadata upload.
type Metadata struct {
	Name       string
	Symbol     string
	Creators   []Creator
	Attributes []Attribute

	// SellerFeeBasisPoints stays raw until mint normalization, which decides
	// what non-numeric values mean.
	SellerFeeBasisPoints json.RawMessage

	fields map[string]json.RawMessage
}

// ParseMetadata decodes a metadata document. Only structural problems (not JSON,
// not an object) fail here; semantic checks live in Validate.
func ParseMetadata(data []byte) (*Metadata, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, services.Wrap(services.ErrInvalidMetadata, "loading", "parse", "metadata is not a JSON object", err)
	}
	if fields == nil {
		return nil, services.Wrap(services.ErrInvalidMetadata, "loading", "parse", "metadata is null", nil)
	}

	m := &Metadata{fields: fields}
	decodeString(fields["name"], &m.Name)
	decodeString(fields["symbol"], &m.Symbol)
	if raw, ok := fields["seller_fee_basis_points"]; ok {
		m.SellerFeeBasisPoints = raw
	}
	m.Creators = decodeCreators(fields["creators"])
	m.Attributes = decodeAttributes(fields["attributes"])
	return m, nil
}

// HasStringName reports whether the document carries name as a JSON string.
func (m *Metadata) HasStringName() bool {
	if m == nil {
		return false
	}
	raw := bytes.TrimSpace(m.fields["name"])
	return len(raw) > 0 && raw[0] == '"'
}

// Field returns a raw top-level field.
func (m *Metadata) Field(key string) (json.RawMessage, bool) {
	if m == nil {
		return nil, false
	}
	raw, ok := m.fields[key]
	return raw, ok
}

// PrunedAttributes drops attributes without a trait type or without a value.
func (m *Metadata) PrunedAttributes() []Attribute {
	if m == nil {
		return nil
	}
	kept := make([]Attribute, 0, len(m.Attributes))
	for _, attr := range m.Attributes {
		if strings.TrimSpace(attr.TraitType) == "" {
			continue
		}
		if len(attr.Value) == 0 || bytes.Equal(bytes.TrimSpace(attr.Value), []byte(`""`)) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

// UploadDocument renders the metadata document that gets uploaded: every
// original field, image set to the media URI, and attributes pruned.
func (m *Metadata) UploadDocument(imageURI string) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.fields)+1)
	for key, value := range m.fields {
		out[key] = value
	}
	image, err := json.Marshal(imageURI)
	if err != nil {
		return nil, fmt.Errorf("encode image uri: %w", err)
	}
	out["image"] = image
	if _, ok := m.fields["attributes"]; ok {
		pruned := m.PrunedAttributes()
		entries := make([]json.RawMessage, 0, len(pruned))
		for _, attr := range pruned {
			entries = append(entries, attr.Raw)
		}
		attrs, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("encode attributes: %w", err)
		}
		out["attributes"] = attrs
	}
	return json.Marshal(out)
}

func decodeString(raw json.RawMessage, dst *string) {
	if len(raw) == 0 {
		return
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		*dst = s
	}
}

func decodeCreators(raw json.RawMessage) []Creator {
	var entries []map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return nil
	}
	creators := make([]Creator, 0, len(entries))
	for _, entry := range entries {
		var c Creator
		decodeString(entry["address"], &c.Address)
		var share float64
		if json.Unmarshal(entry["share"], &share) == nil {
			c.Share = int(share)
		}
		var verified bool
		if json.Unmarshal(entry["verified"], &verified) == nil {
			c.Verified = verified
		}
		creators = append(creators, c)
	}
	return creators
}

func decodeAttributes(raw json.RawMessage) []Attribute {
	var entries []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return nil
	}
	attrs := make([]Attribute, 0, len(entries))
	for _, entry := range entries {
		var fields map[string]json.RawMessage
		if json.Unmarshal(entry, &fields) != nil || fields == nil {
			continue
		}
		a := Attribute{Raw: entry}
		decodeString(fields["trait_type"], &a.TraitType)
		if value, ok := fields["value"]; ok {
			a.Value = value
		}
		attrs = append(attrs, a)
	}
	return attrs
}
