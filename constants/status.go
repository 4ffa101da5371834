package constants

// WarrantyStatus is the derived classification of a receipt's proximity to
// its warranty expiration date.
type WarrantyStatus string

// Stable values (these exact strings go over the wire).
const (
	StatusExpired  WarrantyStatus = "expired"  // expiration date is in the past
	StatusExpiring WarrantyStatus = "expiring" // expires within the horizon
	StatusActive   WarrantyStatus = "active"   // expires after the horizon
)
