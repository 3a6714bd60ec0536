package folder

import (
	"strings"

	"mintwatch/internal/services"
)

// Validate accepts metadata only when name is a JSON string with visible content.
func Validate(m *Metadata) error {
	if m == nil {
		return services.Wrap(services.ErrInvalidMetadata, "validating", "", "metadata missing", nil)
	}
	if !m.HasStringName() {
		return services.Wrap(services.ErrInvalidMetadata, "validating", "name", "name must be a string", nil)
	}
	if strings.TrimSpace(m.Name) == "" {
		return services.Wrap(services.ErrInvalidMetadata, "validating", "name", "name must not be empty", nil)
	}
	return nil
}
