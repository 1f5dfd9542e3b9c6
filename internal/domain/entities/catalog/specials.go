package catalog

import "time"

// ScheduleDayCodes is the fixed weekday vocabulary for special-item
// scheduling. Day tokens outside this list never enter the system; stale or
// foreign codes in stored data are dropped on load.
var ScheduleDayCodes = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// SpecialNode is a promoted menu item with a weekday schedule. Days carries
// the codes from ScheduleDayCodes on which the special is offered; it is a
// set, persisted and compared without regard to order.
type SpecialNode struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	NodeType    string     `json:"nodeType"`
	Slug        string     `json:"slug"`
	ProductID   *string    `json:"productId,omitempty"`
	Description *string    `json:"description,omitempty"`
	PriceCents  int64      `json:"priceCents"`
	Active      bool       `json:"active"`
	Days        []string   `json:"days"`
	Created     time.Time  `json:"created"`
	Changed     *time.Time `json:"changed,omitempty"`
}
