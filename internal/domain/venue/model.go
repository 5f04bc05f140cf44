package venue

import (
	"fmt"
	"time"
)

// Complex is the tenant aggregate. It owns courts and carries the
// encrypted payment-processor credential for the tenant's account.
// The ciphertext is opaque here; it is decrypted only at payment
// preference creation time, never stored decrypted.
type Complex struct {
	ID                  string
	Name                string
	Timezone            string
	ProcessorCredential []byte
	CreatedAt           time.Time
}

func (c Complex) ValidateBasic() error {
	if c.ID == "" {
		return fmt.Errorf("complex id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("complex name is required")
	}
	if c.Timezone == "" {
		return fmt.Errorf("complex timezone is required")
	}

	return nil
}

// Location resolves the tenant timezone. Schedules and price rules are
// expressed in local wall-clock minutes, so every interval computation
// goes through this.
func (c Complex) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load complex timezone %q: %w", c.Timezone, err)
	}

	return loc, nil
}
