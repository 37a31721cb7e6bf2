// Package kind is the registry of resource kinds known to the NaNoWriMo API.
//
// Every known Kind has a plural wire name (the JSON:API "type" tag, e.g.
// "projects") and a singular form (e.g. "project") that the service uses in
// some relationship names. Resolve accepts both. Names the registry does not
// know produce an *UnknownKindError rather than a panic, since the service
// can introduce new kinds at any time.
package kind

import (
	"fmt"
	"strings"
)

// Kind identifies the category of a resource
type Kind int

const (
	// Unknown is the zero Kind. It has no wire names and is used for
	// resources whose type tag is not in the registry.
	Unknown Kind = iota

	Badge
	Challenge
	ChildPost
	DailyAggregate
	ExternalLink
	FavoriteAuthor
	FavoriteBook
	Genre
	Group
	Location
	NanoMessage
	Notification
	Page
	Post
	Project
	StopWatch
	Timer
	User

	// Link kinds join two other kinds, named like ItemAItemB

	ChildPostPost
	GroupExternalLink
	GroupUser
	LocationGroup
	PostPage
	ProjectChallenge
	ProjectSession
	UserBadge

	numKinds
)

type entry struct {
	name     string
	plural   string
	singular string
	link     bool
}

var registry = [numKinds]entry{
	Unknown:        {name: "Unknown"},
	Badge:          {name: "Badge", plural: "badges", singular: "badge"},
	Challenge:      {name: "Challenge", plural: "challenges", singular: "challenge"},
	ChildPost:      {name: "ChildPost", plural: "child-posts", singular: "child-post"},
	DailyAggregate: {name: "DailyAggregate", plural: "daily-aggregates", singular: "daily-aggregate"},
	ExternalLink:   {name: "ExternalLink", plural: "external-links", singular: "external-link"},
	FavoriteAuthor: {name: "FavoriteAuthor", plural: "favorite-authors", singular: "favorite-author"},
	FavoriteBook:   {name: "FavoriteBook", plural: "favorite-books", singular: "favorite-book"},
	Genre:          {name: "Genre", plural: "genres", singular: "genre"},
	Group:          {name: "Group", plural: "groups", singular: "group"},
	Location:       {name: "Location", plural: "locations", singular: "location"},
	NanoMessage:    {name: "NanoMessage", plural: "nanomessages", singular: "nanomessage"},
	Notification:   {name: "Notification", plural: "notifications", singular: "notification"},
	Page:           {name: "Page", plural: "pages", singular: "page"},
	Post:           {name: "Post", plural: "posts", singular: "post"},
	Project:        {name: "Project", plural: "projects", singular: "project"},
	StopWatch:      {name: "StopWatch", plural: "stopwatches", singular: "stopwatch"},
	Timer:          {name: "Timer", plural: "timers", singular: "timer"},
	User:           {name: "User", plural: "users", singular: "user"},

	ChildPostPost:     {name: "ChildPostPost", plural: "child-post-posts", singular: "child-post-post", link: true},
	GroupExternalLink: {name: "GroupExternalLink", plural: "group-external-links", singular: "group-external-link", link: true},
	GroupUser:         {name: "GroupUser", plural: "group-users", singular: "group-user", link: true},
	LocationGroup:     {name: "LocationGroup", plural: "location-groups", singular: "location-group", link: true},
	PostPage:          {name: "PostPage", plural: "post-pages", singular: "post-page", link: true},
	ProjectChallenge:  {name: "ProjectChallenge", plural: "project-challenges", singular: "project-challenge", link: true},
	ProjectSession:    {name: "ProjectSession", plural: "project-sessions", singular: "project-session", link: true},
	UserBadge:         {name: "UserBadge", plural: "user-badges", singular: "user-badge", link: true},
}

// byName maps both wire forms to their Kind
var byName = func() map[string]Kind {
	m := make(map[string]Kind, 2*int(numKinds))
	for k := Kind(1); k < numKinds; k++ {
		m[registry[k].plural] = k
		m[registry[k].singular] = k
	}
	return m
}()

// UnknownKindError is returned when a wire name is not in the registry
type UnknownKindError struct {
	Name string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown resource kind %q", e.Name)
}

// Resolve maps a plural or singular wire name to its Kind
func Resolve(name string) (Kind, error) {
	if k, ok := byName[name]; ok {
		return k, nil
	}
	return Unknown, &UnknownKindError{Name: name}
}

// All returns every known kind in declaration order
func All() []Kind {
	kinds := make([]Kind, 0, int(numKinds)-1)
	for k := Kind(1); k < numKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Names returns the plural and singular wire names of every known kind
func Names() []string {
	names := make([]string, 0, 2*(int(numKinds)-1))
	for k := Kind(1); k < numKinds; k++ {
		names = append(names, registry[k].plural, registry[k].singular)
	}
	return names
}

// Known reports whether k is a registered kind
func (k Kind) Known() bool {
	return k > Unknown && k < numKinds
}

// Plural returns the plural wire name, "" for Unknown
func (k Kind) Plural() string {
	if !k.Known() {
		return ""
	}
	return registry[k].plural
}

// Singular returns the singular wire name, "" for Unknown
func (k Kind) Singular() string {
	if !k.Known() {
		return ""
	}
	return registry[k].singular
}

// IsLink reports whether k joins two other kinds (e.g. GroupUser)
func (k Kind) IsLink() bool {
	return k.Known() && registry[k].link
}

func (k Kind) String() string {
	if k < Unknown || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return registry[k].name
}

// MarshalText encodes k as its plural wire name
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Known() {
		return nil, fmt.Errorf("cannot encode %s: no wire name", k)
	}
	return []byte(registry[k].plural), nil
}

// UnmarshalText decodes a plural or singular wire name
func (k *Kind) UnmarshalText(text []byte) error {
	resolved, err := Resolve(string(text))
	if err != nil {
		return err
	}
	*k = resolved
	return nil
}

// JoinPlural joins the plural names of kinds with sep, skipping unknown kinds
func JoinPlural(kinds []Kind, sep string) string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if k.Known() {
			names = append(names, k.Plural())
		}
	}
	return strings.Join(names, sep)
}
