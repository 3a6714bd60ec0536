package services

import (
	"errors"
	"fmt"
	"strings"
)

// Markers classifying folder pipeline failures. Every error returned by a
// pipeline stage wraps exactly one of these so callers can branch with errors.Is.
var (
	ErrFolderUnavailable    = errors.New("folder unavailable")
	ErrMissingMedia         = errors.New("missing media")
	ErrMissingMetadata      = errors.New("missing metadata")
	ErrInvalidMetadata      = errors.New("invalid metadata")
	ErrUpload               = errors.New("upload failed")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrVerificationTimeout  = errors.New("verification timeout")
	ErrVerificationMismatch = errors.New("verification mismatch")
	ErrMint                 = errors.New("mint failed")
	ErrCompletion           = errors.New("completion failed")
	ErrConfiguration        = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		if err == nil {
			return errors.New(detail)
		}
		return fmt.Errorf("%s: %w", detail, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a stable snake_case identifier for the marker carried by err.
// Unclassified errors report "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFolderUnavailable):
		return "folder_unavailable"
	case errors.Is(err, ErrMissingMedia):
		return "missing_media"
	case errors.Is(err, ErrMissingMetadata):
		return "missing_metadata"
	case errors.Is(err, ErrInvalidMetadata):
		return "invalid_metadata"
	case errors.Is(err, ErrVerificationTimeout):
		return "verification_timeout"
	case errors.Is(err, ErrVerificationMismatch):
		return "verification_mismatch"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrUpload):
		return "upload"
	case errors.Is(err, ErrMint):
		return "mint"
	case errors.Is(err, ErrCompletion):
		return "completion"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "unknown"
	}
}

// Hint returns the operator-facing next step for a failed folder.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFolderUnavailable):
		return "folder vanished or is unreadable; drop it into the inbox again"
	case errors.Is(err, ErrMissingMedia):
		return "add one png/jpg/jpeg/gif/webp/webm/mp4 file to the folder"
	case errors.Is(err, ErrMissingMetadata):
		return "add a .json metadata document to the folder"
	case errors.Is(err, ErrInvalidMetadata):
		return "metadata must be valid JSON with a non-empty string name"
	case errors.Is(err, ErrInsufficientFunds):
		return "fund the storage payer wallet, then touch the folder to retry"
	case errors.Is(err, ErrVerificationTimeout):
		return "content may still be propagating; touch the folder later to retry"
	case errors.Is(err, ErrVerificationMismatch):
		return "storage returned different content; check the storage backend"
	case errors.Is(err, ErrUpload):
		return "check storage connectivity, then touch the folder to retry"
	case errors.Is(err, ErrCompletion):
		return "the asset is minted; fix the folder permissions and move it to processed by hand"
	case errors.Is(err, ErrMint):
		return "check the explorer for an asset before retrying; a submitted transaction may have landed"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
