package status

import (
	"database/sql/driver"
	"errors"
	"strings"
)

// Status is the fulfillment state of an order. Transitions are not
// constrained: an administrator may move an order between any two states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid status")

func (s Status) String() string {
	return string(s)
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

// Label returns the human-readable form shown to customers,
// the raw status with its first letter capitalized.
func (s Status) Label() string {
	if s == "" {
		return ""
	}

	return strings.ToUpper(string(s[0])) + string(s[1:])
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}
