package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/logistock/logistock/internal/shared"
)

// DateLayout is the ISO-8601 calendar date layout used for entry and exit dates.
const DateLayout = "2006-01-02"

// DefaultFile is the inventory file used when none is supplied.
const DefaultFile = "inventory.csv"

// HistoryReason tags why a quantity history entry was recorded.
type HistoryReason string

const (
	// ReasonCreated seeds the history with the initial quantity.
	ReasonCreated HistoryReason = "created"
	// ReasonEntry records an inbound movement.
	ReasonEntry HistoryReason = "entry"
	// ReasonExit records an outbound movement.
	ReasonExit HistoryReason = "exit"
	// ReasonCorrection records a raw quantity overwrite.
	ReasonCorrection HistoryReason = "correction"
	// ReasonLoaded seeds the history of a product read back from storage.
	ReasonLoaded HistoryReason = "loaded"
)

// HistoryEntry is one point of a product's quantity history.
type HistoryEntry struct {
	At       time.Time     `json:"at"`
	Quantity int           `json:"quantity"`
	Reason   HistoryReason `json:"reason"`
}

var (
	// ErrInsufficientStock is returned when an exit exceeds the current quantity.
	ErrInsufficientStock = fmt.Errorf("%w: not enough units in stock", shared.ErrInvalidArgument)
	// ErrNoInventoryFile reports a missing inventory file. Callers treat it as a warning.
	ErrNoInventoryFile = errors.New("inventory: file does not exist")
)

var nowFunc = func() time.Time { return time.Now().UTC() }

// Today returns the current calendar date at UTC midnight.
func Today() time.Time {
	return truncateDate(nowFunc())
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (expected YYYY-MM-DD)", shared.ErrInvalidArgument, value)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{shared.ErrInvalidArgument}, args...)...)
}
