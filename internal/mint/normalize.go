package mint

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"mintwatch/internal/folder"
)

const (
	// MaxBasisPoints is a 100% royalty.
	MaxBasisPoints = 10000

	minCreatorAddressLen = 32
	maxCreatorAddressLen = 44
)

// NormalizeRoyalty converts a raw seller_fee_basis_points value into basis
// points in [0, MaxBasisPoints]. Only JSON numbers count; anything else
// (absent, null, strings, objects) is 0. Fractions truncate toward zero.
func NormalizeRoyalty(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		var inf bool
		if value, inf = overflowedNumber(raw); !inf {
			return 0
		}
	}
	if math.IsNaN(value) {
		return 0
	}
	value = math.Trunc(value)
	switch {
	case value < 0:
		return 0
	case value > MaxBasisPoints:
		return MaxBasisPoints
	default:
		return int(value)
	}
}

// RoyaltyPercent converts basis points into the percentage the mint call takes.
func RoyaltyPercent(basisPoints int) float64 {
	return float64(basisPoints) / 100
}

// FilterCreators keeps creators whose trimmed address is a plausible account
// address. It returns nil, not an empty slice, when nothing survives so the
// minting default applies.
func FilterCreators(creators []folder.Creator) []folder.Creator {
	var kept []folder.Creator
	for _, c := range creators {
		addr := strings.TrimSpace(c.Address)
		if n := len(addr); n < minCreatorAddressLen || n > maxCreatorAddressLen {
			continue
		}
		c.Address = addr
		kept = append(kept, c)
	}
	return kept
}

// overflowedNumber reports a numeric literal too large for float64 as the
// signed infinity it rounds to.
func overflowedNumber(raw json.RawMessage) (float64, bool) {
	var num json.Number
	if json.Unmarshal(raw, &num) != nil || raw[0] == '"' {
		return 0, false
	}
	value, err := strconv.ParseFloat(num.String(), 64)
	if errors.Is(err, strconv.ErrRange) && math.IsInf(value, 0) {
		return value, true
	}
	return 0, false
}

// normalizeText leaves whitespace alone so the minted name matches the
// uploaded metadata.
func normalizeText(value string) string {
	return norm.NFC.String(value)
}
