package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// Role закрытый набор ролей
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
	RoleSuperadmin Role = "superadmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleSuperadmin:
		return true
	}
	return false
}

func ParseRole(v string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(v)))
	return r, r.Valid()
}

// Capability вкладка панели, доступ к которой выдаётся сотруднику
type Capability uint32

const (
	CapOrders Capability = 1 << iota
	CapMenu
	CapBilling
	CapTables
	CapReports
	CapStaff
)

var capabilityNames = map[Capability]string{
	CapOrders:  "orders",
	CapMenu:    "menu",
	CapBilling: "billing",
	CapTables:  "tables",
	CapReports: "reports",
	CapStaff:   "staff",
}

func (c Capability) String() string {
	if n, ok := capabilityNames[c]; ok {
		return n
	}
	return "unknown"
}

// ParseCapability maps a tab name ("Orders", "menu") to its capability.
func ParseCapability(v string) (Capability, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	for c, n := range capabilityNames {
		if n == v {
			return c, true
		}
	}
	return 0, false
}

// CapabilitySet битовый набор вкладок
type CapabilitySet uint32

func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s = s.With(c)
	}
	return s
}

func (s CapabilitySet) Has(c Capability) bool { return c != 0 && uint32(s)&uint32(c) == uint32(c) }

func (s CapabilitySet) With(c Capability) CapabilitySet { return s | CapabilitySet(c) }

// Names sorted tab names in the set.
func (s CapabilitySet) Names() []string {
	out := make([]string, 0, len(capabilityNames))
	for c, n := range capabilityNames {
		if s.Has(c) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// ParseCapabilitySet rejects unknown tab names.
func ParseCapabilitySet(names []string) (CapabilitySet, bool) {
	var s CapabilitySet
	for _, n := range names {
		c, ok := ParseCapability(n)
		if !ok {
			return 0, false
		}
		s = s.With(c)
	}
	return s, true
}

func (s CapabilitySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

func (s *CapabilitySet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	parsed, ok := ParseCapabilitySet(names)
	if !ok {
		return ErrUnknownCapability
	}
	*s = parsed
	return nil
}
