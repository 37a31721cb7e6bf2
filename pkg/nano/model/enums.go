package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// EnumError reports a value outside a closed enumeration
type EnumError struct {
	Enum  string
	Value string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("invalid %s value %s", e.Enum, e.Value)
}

// decodeIndex reads a small unsigned integer and checks it against count
func decodeIndex(raw []byte, enum string, count int) (int, error) {
	var n uint8
	if string(raw) == "null" {
		return 0, &EnumError{Enum: enum, Value: string(raw)}
	}
	if err := json.Unmarshal(raw, &n); err != nil || int(n) >= count {
		return 0, &EnumError{Enum: enum, Value: string(raw)}
	}
	return int(n), nil
}

// decodeName reads a string and returns its position in names
func decodeName(raw []byte, enum string, names []string) (int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, &EnumError{Enum: enum, Value: string(raw)}
	}
	for i, name := range names {
		if name == s {
			return i, nil
		}
	}
	return 0, &EnumError{Enum: enum, Value: string(raw)}
}

func encodeName(enum string, names []string, i int) ([]byte, error) {
	if i < 0 || i >= len(names) {
		return nil, &EnumError{Enum: enum, Value: strconv.Itoa(i)}
	}
	return json.Marshal(names[i])
}

func encodeIndex(enum string, count int, i int) ([]byte, error) {
	if i < 0 || i >= count {
		return nil, &EnumError{Enum: enum, Value: strconv.Itoa(i)}
	}
	return []byte(strconv.Itoa(i)), nil
}

// PrivacySetting controls who can see a piece of user data. Wire: 0..2.
type PrivacySetting int

const (
	PrivacyPrivate PrivacySetting = iota
	PrivacyBuddies
	PrivacyAnyone
)

var privacyNames = []string{"private", "buddies", "anyone"}

func (p PrivacySetting) String() string {
	if p < 0 || int(p) >= len(privacyNames) {
		return "PrivacySetting(" + strconv.Itoa(int(p)) + ")"
	}
	return privacyNames[p]
}

func (p PrivacySetting) MarshalJSON() ([]byte, error) {
	return encodeIndex("privacy setting", len(privacyNames), int(p))
}

func (p *PrivacySetting) UnmarshalJSON(raw []byte) error {
	i, err := decodeIndex(raw, "privacy setting", len(privacyNames))
	if err != nil {
		return err
	}
	*p = PrivacySetting(i)
	return nil
}

// ProjectStatus is the writing progress of a project
type ProjectStatus int

const (
	StatusInProgress ProjectStatus = iota
	StatusDrafted
	StatusCompleted
	StatusPublished
)

var projectStatusNames = []string{"In Progress", "Drafted", "Completed", "Published"}

func (s ProjectStatus) String() string {
	if s < 0 || int(s) >= len(projectStatusNames) {
		return "ProjectStatus(" + strconv.Itoa(int(s)) + ")"
	}
	return projectStatusNames[s]
}

func (s ProjectStatus) MarshalJSON() ([]byte, error) {
	return encodeName("project status", projectStatusNames, int(s))
}

func (s *ProjectStatus) UnmarshalJSON(raw []byte) error {
	i, err := decodeName(raw, "project status", projectStatusNames)
	if err != nil {
		return err
	}
	*s = ProjectStatus(i)
	return nil
}

// EventType distinguishes the November event from Camp sessions
type EventType int

const (
	EventNanoWrimo EventType = iota
	EventCampNano
)

var eventTypeNames = []string{"NaNoWriMo", "Camp NaNoWriMo"}

func (e EventType) String() string {
	if e < 0 || int(e) >= len(eventTypeNames) {
		return "EventType(" + strconv.Itoa(int(e)) + ")"
	}
	return eventTypeNames[e]
}

func (e EventType) MarshalJSON() ([]byte, error) {
	return encodeIndex("event type", len(eventTypeNames), int(e))
}

func (e *EventType) UnmarshalJSON(raw []byte) error {
	i, err := decodeIndex(raw, "event type", len(eventTypeNames))
	if err != nil {
		return err
	}
	*e = EventType(i)
	return nil
}

// GroupType is the flavour of a group
type GroupType int

const (
	GroupEveryone GroupType = iota
	GroupRegion
	GroupBuddies
)

var groupTypeNames = []string{"everyone", "region", "buddies"}

func (g GroupType) String() string {
	if g < 0 || int(g) >= len(groupTypeNames) {
		return "GroupType(" + strconv.Itoa(int(g)) + ")"
	}
	return groupTypeNames[g]
}

func (g GroupType) MarshalJSON() ([]byte, error) {
	return encodeName("group type", groupTypeNames, int(g))
}

func (g *GroupType) UnmarshalJSON(raw []byte) error {
	i, err := decodeName(raw, "group type", groupTypeNames)
	if err != nil {
		return err
	}
	*g = GroupType(i)
	return nil
}

// EntryMethod is how a user came to be in a group
type EntryMethod int

const (
	EntryJoin EntryMethod = iota
	EntryCreator
	EntryInvited
)

var entryMethodNames = []string{"join", "creator", "invited"}

func (e EntryMethod) String() string {
	if e < 0 || int(e) >= len(entryMethodNames) {
		return "EntryMethod(" + strconv.Itoa(int(e)) + ")"
	}
	return entryMethodNames[e]
}

func (e EntryMethod) MarshalJSON() ([]byte, error) {
	return encodeName("entry method", entryMethodNames, int(e))
}

func (e *EntryMethod) UnmarshalJSON(raw []byte) error {
	i, err := decodeName(raw, "entry method", entryMethodNames)
	if err != nil {
		return err
	}
	*e = EntryMethod(i)
	return nil
}

// AdminLevel is a user's site role. Wire: 0 user, 1 admin.
type AdminLevel int

const (
	AdminLevelUser AdminLevel = iota
	AdminLevelAdmin
)

var adminLevelNames = []string{"user", "admin"}

func (a AdminLevel) String() string {
	if a < 0 || int(a) >= len(adminLevelNames) {
		return "AdminLevel(" + strconv.Itoa(int(a)) + ")"
	}
	return adminLevelNames[a]
}

func (a AdminLevel) MarshalJSON() ([]byte, error) {
	return encodeIndex("admin level", len(adminLevelNames), int(a))
}

func (a *AdminLevel) UnmarshalJSON(raw []byte) error {
	i, err := decodeIndex(raw, "admin level", len(adminLevelNames))
	if err != nil {
		return err
	}
	*a = AdminLevel(i)
	return nil
}

// The value sets of the following fields have not been mapped out, so the
// wire value is kept as is.

// WritingType is the form of a project (novel, memoir, ...), wire integer
type WritingType int

// JoiningRule governs how users can join a group, wire integer
type JoiningRule int

// DisplayStatus is the read state of a notification, wire integer
type DisplayStatus int

// ActionType is what a notification links to
type ActionType string

// ContentType is the presentation of a post or page
type ContentType string

// RegistrationPath is how a user signed up
type RegistrationPath string

// BadgeType is the category of a badge
type BadgeType string
