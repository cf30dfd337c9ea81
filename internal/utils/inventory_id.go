package utils

import (
	"errors"
	"fmt"
	"time"
)

// ==========================================
// INVENTORY ID
// Format: {MFG}{ddMMyyyy}{ProductID}{Scan#}
// MFG:       3 uppercase chars (manufacturer code)
// ddMMyyyy:  batch date received
// ProductID: free-form, variable length
// Scan#:     zero-padded to 4 digits
// Example:   BRS05032024120001
// ==========================================
//
// No separators are inserted between fields. Printed QR stock already
// encodes this exact concatenation, so it must be preserved byte for byte
// even though a product ID ending in digits is ambiguous against the scan
// number. The ID is generate-only: it is matched as an opaque key, never
// parsed back into fields.

// ScanNumberWidth is the zero-padded width of the trailing scan number
const ScanNumberWidth = 4

// GenerateInventoryID derives the stable external identifier for a scanned
// item. Pure and deterministic; fails only on input-contract violations.
func GenerateInventoryID(manufacturerCode string, dateReceived time.Time, productID string, scanNumber int) (string, error) {
	if len(manufacturerCode) != 3 {
		return "", errors.New("manufacturer code must be exactly 3 characters")
	}
	for _, c := range manufacturerCode {
		if c < 'A' || c > 'Z' {
			return "", errors.New("manufacturer code must be uppercase A-Z")
		}
	}
	if productID == "" {
		return "", errors.New("product id is required")
	}
	if scanNumber <= 0 {
		return "", errors.New("scan number must be positive")
	}
	if scanNumber > 9999 {
		return "", fmt.Errorf("scan number %d exceeds the 4-digit range", scanNumber)
	}

	return fmt.Sprintf("%s%s%s%0*d",
		manufacturerCode,
		dateReceived.Format("02012006"),
		productID,
		ScanNumberWidth, scanNumber,
	), nil
}
