// Package program models observing programs and their credentialed lookup.
package program

import (
	"fmt"
	"time"
)

// ProgNameLen is the fixed length of a program name, e.g. "2021A000".
const ProgNameLen = 8

// Credentials identify a program to the credential store. ProgKey is the
// caller-presented secret; the store holds only a salted hash of it.
type Credentials struct {
	ProgName string `json:"progname"`
	ProgKey  string `json:"prog_key"`
}

// Program is one observing program record. Immutable once validated; the
// credential store owns the canonical copy.
type Program struct {
	ProgID         int       `json:"progid" db:"progid"`
	ProgName       string    `json:"progname" db:"progname"`
	ProgKeyHash    string    `json:"-" db:"prog_key"`
	PIName         string    `json:"pi_name" db:"pi_name"`
	PIEmail        string    `json:"pi_email" db:"pi_email"`
	StartDate      time.Time `json:"startdate" db:"startdate"`
	EndDate        time.Time `json:"enddate" db:"enddate"`
	HoursAllocated float64   `json:"hours_allocated" db:"hours_allocated"`
	HoursUsed      float64   `json:"hours_used" db:"hours_used"`
	MaxPriority    float64   `json:"maxpriority" db:"maxpriority"`
	ProgTitle      string    `json:"progtitle" db:"progtitle"`
}

// Validate checks the program record's construction invariants.
func (p Program) Validate() error {
	if len(p.ProgName) != ProgNameLen {
		return fmt.Errorf("progname %q must be exactly %d characters", p.ProgName, ProgNameLen)
	}
	if !p.EndDate.After(p.StartDate) {
		return fmt.Errorf("program %s: enddate %s not after startdate %s",
			p.ProgName, p.EndDate.Format(time.DateOnly), p.StartDate.Format(time.DateOnly))
	}
	if p.HoursAllocated < 0 {
		return fmt.Errorf("program %s: hours_allocated (%g) must not be negative", p.ProgName, p.HoursAllocated)
	}
	if p.HoursUsed < 0 || p.HoursUsed > p.HoursAllocated {
		return fmt.Errorf("program %s: hours_used (%g) outside [0, %g]",
			p.ProgName, p.HoursUsed, p.HoursAllocated)
	}
	return nil
}

// HoursRemaining returns the unspent time allocation.
func (p Program) HoursRemaining() float64 {
	return p.HoursAllocated - p.HoursUsed
}
