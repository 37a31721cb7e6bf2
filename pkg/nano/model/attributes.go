package model

import (
	"encoding/json"
	"time"

	"github.com/conduit-lang/nanowrimo/pkg/nano/codec"
	"github.com/conduit-lang/nanowrimo/pkg/nano/kind"
)

// Attributes is the kind-specific payload of a Resource. The dynamic type
// of the value always matches the Resource's Kind.
type Attributes interface {
	Kind() kind.Kind
}

// attributeTypes is the dispatch table from type tag to attribute record
var attributeTypes = map[kind.Kind]func() Attributes{
	kind.Badge:             func() Attributes { return new(BadgeAttributes) },
	kind.Challenge:         func() Attributes { return new(ChallengeAttributes) },
	kind.FavoriteAuthor:    func() Attributes { return new(FavoriteAuthorAttributes) },
	kind.FavoriteBook:      func() Attributes { return new(FavoriteBookAttributes) },
	kind.Genre:             func() Attributes { return new(GenreAttributes) },
	kind.Group:             func() Attributes { return new(GroupAttributes) },
	kind.GroupExternalLink: func() Attributes { return new(GroupExternalLinkAttributes) },
	kind.Location:          func() Attributes { return new(LocationAttributes) },
	kind.NanoMessage:       func() Attributes { return new(NanoMessageAttributes) },
	kind.Notification:      func() Attributes { return new(NotificationAttributes) },
	kind.Page:              func() Attributes { return new(PageAttributes) },
	kind.Post:              func() Attributes { return new(PostAttributes) },
	kind.Project:           func() Attributes { return new(ProjectAttributes) },
	kind.ProjectSession:    func() Attributes { return new(ProjectSessionAttributes) },
	kind.StopWatch:         func() Attributes { return new(StopWatchAttributes) },
	kind.Timer:             func() Attributes { return new(TimerAttributes) },
	kind.User:              func() Attributes { return new(UserAttributes) },
	kind.GroupUser:         func() Attributes { return new(GroupUserAttributes) },
	kind.LocationGroup:     func() Attributes { return new(LocationGroupAttributes) },
	kind.ProjectChallenge:  func() Attributes { return new(ProjectChallengeAttributes) },
	kind.UserBadge:         func() Attributes { return new(UserBadgeAttributes) },

	kind.ChildPost:      genericFor(kind.ChildPost),
	kind.ChildPostPost:  genericFor(kind.ChildPostPost),
	kind.DailyAggregate: genericFor(kind.DailyAggregate),
	kind.ExternalLink:   genericFor(kind.ExternalLink),
	kind.PostPage:       genericFor(kind.PostPage),
}

func genericFor(k kind.Kind) func() Attributes {
	return func() Attributes { return &GenericAttributes{kind: k} }
}

// newAttributes returns an empty record for k, or false if k has no schema
func newAttributes(k kind.Kind) (Attributes, bool) {
	ctor, ok := attributeTypes[k]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// GenericAttributes keeps the attribute object of kinds whose schema has not
// been mapped out (child posts, daily aggregates, external links, ...).
type GenericAttributes struct {
	kind   kind.Kind
	Fields map[string]json.RawMessage
}

// Kind returns the kind the attributes were decoded for
func (g *GenericAttributes) Kind() kind.Kind {
	if g == nil {
		return kind.Unknown
	}
	return g.kind
}

func (g *GenericAttributes) UnmarshalJSON(raw []byte) error {
	return json.Unmarshal(raw, &g.Fields)
}

func (g *GenericAttributes) MarshalJSON() ([]byte, error) {
	if g.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(g.Fields)
}

// UnknownAttributes holds the raw attributes of a resource whose type tag
// is not registered. Only produced when decoding with AllowUnknownKinds.
type UnknownAttributes struct {
	Raw json.RawMessage
}

func (*UnknownAttributes) Kind() kind.Kind { return kind.Unknown }

func (u *UnknownAttributes) MarshalJSON() ([]byte, error) {
	if len(u.Raw) == 0 {
		return []byte("{}"), nil
	}
	return u.Raw, nil
}

type StopWatchAttributes struct {
	Start time.Time  `json:"start"`
	Stop  *time.Time `json:"stop"`
}

func (*StopWatchAttributes) Kind() kind.Kind { return kind.StopWatch }

type TimerAttributes struct {
	Cancelled bool          `json:"cancelled"`
	Duration  codec.Minutes `json:"duration"`
	Start     time.Time     `json:"start"`
}

func (*TimerAttributes) Kind() kind.Kind { return kind.Timer }

// UserAttributes is the profile of a user. The settings groups are only
// sent for the logged in user and stay nil otherwise.
type UserAttributes struct {
	AdminLevel        AdminLevel `json:"admin-level"`
	Avatar            *string    `json:"avatar"`
	Bio               *string    `json:"bio"`
	ConfirmedAt       time.Time  `json:"confirmed-at"`
	CreatedAt         time.Time  `json:"created-at"`
	DiscourseUsername *string    `json:"discourse-username"`
	Email             *string    `json:"email"`

	*EmailSettings

	Halo     bool    `json:"halo"`
	Laurels  uint64  `json:"laurels"`
	Location *string `json:"location"`
	Name     string  `json:"name"`

	*NotificationSettings

	NotificationsViewedAt time.Time `json:"notifications-viewed-at"`
	Plate                 *string   `json:"plate"`
	PostalCode            *string   `json:"postal-code"`

	*PrivacySettings

	RegistrationPath             RegistrationPath `json:"registration-path"`
	SettingSessionCountBySession uint8            `json:"setting-session-count-by-session"`
	SettingSessionMoreInfo       bool             `json:"setting-session-more-info"`
	Slug                         string           `json:"slug"`

	StatsInfo

	TimeZone string `json:"time-zone"`
}

func (*UserAttributes) Kind() kind.Kind { return kind.User }

type EmailSettings struct {
	BlogPosts           bool `json:"email-blog-posts"`
	BuddyRequests       bool `json:"email-buddy-requests"`
	EventsInHomeRegion  bool `json:"email-events-in-home-region"`
	NanomessagesBuddies bool `json:"email-nanomessages-buddies"`
	NanomessagesHQ      bool `json:"email-nanomessages-hq"`
	NanomessagesMLs     bool `json:"email-nanomessages-mls"`
	NanowrimoUpdates    bool `json:"email-nanowrimo-updates"`
	Newsletter          bool `json:"email-newsletter"`
	WritingReminders    bool `json:"email-writing-reminders"`
}

type NotificationSettings struct {
	BuddyActivities     bool `json:"notification-buddy-activities"`
	BuddyRequests       bool `json:"notification-buddy-requests"`
	EventsInHomeRegion  bool `json:"notification-events-in-home-region"`
	GoalMilestones      bool `json:"notification-goal-milestones"`
	NanomessagesBuddies bool `json:"notification-nanomessages-buddies"`
	NanomessagesHQ      bool `json:"notification-nanomessages-hq"`
	NanomessagesMLs     bool `json:"notification-nanomessages-mls"`
	NewBadges           bool `json:"notification-new-badges"`
	SprintInvitation    bool `json:"notification-sprint-invitation"`
	SprintStart         bool `json:"notification-sprint-start"`
	WritingReminders    bool `json:"notification-writing-reminders"`
}

type PrivacySettings struct {
	SendNanomessages       PrivacySetting `json:"privacy-send-nanomessages"`
	ViewBuddies            PrivacySetting `json:"privacy-view-buddies"`
	ViewProfile            PrivacySetting `json:"privacy-view-profile"`
	ViewProjects           PrivacySetting `json:"privacy-view-projects"`
	ViewSearch             PrivacySetting `json:"privacy-view-search"`
	VisibilityActivityLogs bool           `json:"privacy-visibility-activity-logs"`
	VisibilityBuddyLists   bool           `json:"privacy-visibility-buddy-lists"`
	VisibilityRegions      bool           `json:"privacy-visibility-regions"`
}

// StatsInfo controls which statistics a user shows on their profile
type StatsInfo struct {
	Projects           uint64  `json:"stats-projects"`
	ProjectsEnabled    bool    `json:"stats-projects-enabled"`
	Streak             uint64  `json:"stats-streak"`
	StreakEnabled      bool    `json:"stats-streak-enabled"`
	WordCount          uint64  `json:"stats-word-count"`
	WordCountEnabled   bool    `json:"stats-word-count-enabled"`
	Wordiest           uint64  `json:"stats-wordiest"`
	WordiestEnabled    bool    `json:"stats-wordiest-enabled"`
	WritingPace        *uint64 `json:"stats-writing-pace"`
	WritingPaceEnabled bool    `json:"stats-writing-pace-enabled"`
	YearsDone          *uint64 `json:"stats-years-done"`
	YearsEnabled       bool    `json:"stats-years-enabled"`
	YearsWon           *uint64 `json:"stats-years-won"`
}

type ProjectAttributes struct {
	Cover        *string        `json:"cover"`
	CreatedAt    time.Time      `json:"created-at"`
	Excerpt      *string        `json:"excerpt"`
	PinterestURL *string        `json:"pinterest-url"`
	PlaylistURL  *string        `json:"playlist-url"`
	Primary      *uint8         `json:"primary"`
	Privacy      PrivacySetting `json:"privacy"`
	Slug         string         `json:"slug"`
	Status       ProjectStatus  `json:"status"`
	Summary      *string        `json:"summary"`
	Title        string         `json:"title"`
	UnitCount    *uint64        `json:"unit-count"`
	UnitType     uint64         `json:"unit-type"`
	UserID       uint64         `json:"user-id"`
	WritingType  WritingType    `json:"writing-type"`
}

func (*ProjectAttributes) Kind() kind.Kind { return kind.Project }

type BadgeAttributes struct {
	Active              bool      `json:"active"`
	AdheresTo           string    `json:"adheres-to"`
	Awarded             string    `json:"awarded"`
	AwardedDescription  string    `json:"awarded-description"`
	BadgeType           BadgeType `json:"badge-type"`
	Description         string    `json:"description"`
	GenericDescription  string    `json:"generic-description"`
	ListOrder           uint64    `json:"list-order"`
	Suborder            *uint64   `json:"suborder"`
	Title               string    `json:"title"`
	Unawarded           string    `json:"unawarded"`
	Winner              bool      `json:"winner"`
}

func (*BadgeAttributes) Kind() kind.Kind { return kind.Badge }

type ChallengeAttributes struct {
	DefaultGoal  uint64      `json:"default-goal"`
	EndsAt       codec.Date  `json:"ends-at"`
	EventType    EventType   `json:"event-type"`
	FlexibleGoal bool        `json:"flexible-goal"`
	Name         string      `json:"name"`
	PrepStartsAt *codec.Date `json:"prep-starts-at"`
	StartsAt     codec.Date  `json:"starts-at"`
	UnitType     uint64      `json:"unit-type"`
	UserID       uint64      `json:"user-id"`
	WinAllowedAt codec.Date  `json:"win-allowed-at"`
	WritingType  WritingType `json:"writing-type"`
}

func (*ChallengeAttributes) Kind() kind.Kind { return kind.Challenge }

type GenreAttributes struct {
	Name   string `json:"name"`
	UserID uint64 `json:"user-id"`
}

func (*GenreAttributes) Kind() kind.Kind { return kind.Genre }

type GroupAttributes struct {
	ApprovedByID   uint64       `json:"approved-by-id"`
	Avatar         *string      `json:"avatar"`
	CancelledByID  uint64       `json:"cancelled-by-id"`
	CreatedAt      time.Time    `json:"created-at"`
	Description    *string      `json:"description"`
	EndDt          *time.Time   `json:"end-dt"`
	ForumLink      *string      `json:"forum-link"`
	GroupID        *uint64      `json:"group-id"`
	GroupType      GroupType    `json:"group-type"`
	JoiningRule    *JoiningRule `json:"joining-rule"`
	Latitude       *float64     `json:"latitude"`
	Longitude      *float64     `json:"longitude"`
	MaxMemberCount *uint64      `json:"max-member-count"`
	MemberCount    *uint64      `json:"member-count"`
	Name           string       `json:"name"`
	Plate          *string      `json:"plate"`
	Slug           string       `json:"slug"`
	StartDt        *time.Time   `json:"start-dt"`
	TimeZone       *string      `json:"time-zone"`
	UpdatedAt      time.Time    `json:"updated-at"`
	URL            *string      `json:"url"`
	UserID         *uint64      `json:"user-id"`
}

func (*GroupAttributes) Kind() kind.Kind { return kind.Group }

type LocationAttributes struct {
	City             string  `json:"city"`
	Country          string  `json:"country"`
	County           *string `json:"county"`
	FormattedAddress *string `json:"formatted-address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	MapURL           *string `json:"map-url"`
	Municipality     *string `json:"municipality"`
	Name             string  `json:"name"`
	Neighborhood     *string `json:"neighborhood"`
	PostalCode       string  `json:"postal-code"`
	State            string  `json:"state"`
	Street1          *string `json:"street1"`
	Street2          *string `json:"street2"`
	UTCOffset        *int64  `json:"utc-offset"`
}

func (*LocationAttributes) Kind() kind.Kind { return kind.Location }

type GroupExternalLinkAttributes struct {
	GroupID uint64  `json:"group-id"`
	Label   *string `json:"label"`
	URL     string  `json:"url"`
}

func (*GroupExternalLinkAttributes) Kind() kind.Kind { return kind.GroupExternalLink }

type NanoMessageAttributes struct {
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created-at"`
	GroupID         uint64    `json:"group-id"`
	Official        bool      `json:"official"`
	SendEmail       *bool     `json:"send-email"`
	SenderAvatarURL *string   `json:"sender-avatar-url"`
	SenderName      string    `json:"sender-name"`
	SenderSlug      string    `json:"sender-slug"`
	UpdatedAt       time.Time `json:"updated-at"`
	UserID          uint64    `json:"user-id"`
}

func (*NanoMessageAttributes) Kind() kind.Kind { return kind.NanoMessage }

type NotificationAttributes struct {
	ActionID      *uint64       `json:"action-id"`
	ActionType    ActionType    `json:"action-type"`
	Content       string        `json:"content"`
	CreatedAt     time.Time     `json:"created-at"`
	DataCount     *uint64       `json:"data-count"`
	DisplayAt     time.Time     `json:"display-at"`
	DisplayStatus DisplayStatus `json:"display-status"`
	Headline      string        `json:"headline"`
	ImageURL      *string       `json:"image-url"`
	LastViewedAt  *time.Time    `json:"last-viewed-at"`
	RedirectURL   *string       `json:"redirect-url"`
	UpdatedAt     time.Time     `json:"updated-at"`
	UserID        uint64        `json:"user-id"`
}

func (*NotificationAttributes) Kind() kind.Kind { return kind.Notification }

type PageAttributes struct {
	Body                 string      `json:"body"`
	URL                  string      `json:"url"`
	Headline             string      `json:"headline"`
	ContentType          ContentType `json:"content-type"`
	ShowAfter            *time.Time  `json:"show-after"`
	PromotionalCardImage *string     `json:"promotional-card-image"`
}

func (*PageAttributes) Kind() kind.Kind { return kind.Page }

type PostAttributes struct {
	APICode      *string     `json:"api-code"`
	Body         string      `json:"body"`
	CardImage    *string     `json:"card-image"`
	ContentType  ContentType `json:"content-type"`
	ExpiresAt    *codec.Date `json:"expires-at"`
	ExternalLink *string     `json:"external-link"`
	Headline     string      `json:"headline"`
	OfferCode    *string     `json:"offer-code"`
	Order        *uint64     `json:"order"`
	Published    bool        `json:"published"`
	Subhead      *string     `json:"subhead"`
}

func (*PostAttributes) Kind() kind.Kind { return kind.Post }

type FavoriteAuthorAttributes struct {
	Name   string `json:"name"`
	UserID uint64 `json:"user-id"`
}

func (*FavoriteAuthorAttributes) Kind() kind.Kind { return kind.FavoriteAuthor }

type FavoriteBookAttributes struct {
	Name   string `json:"name"`
	UserID uint64 `json:"user-id"`
}

func (*FavoriteBookAttributes) Kind() kind.Kind { return kind.FavoriteBook }

type GroupUserAttributes struct {
	CreatedAt          time.Time   `json:"created-at"`
	EntryAt            time.Time   `json:"entry-at"`
	EntryMethod        EntryMethod `json:"entry-method"`
	ExitAt             *time.Time  `json:"exit-at"`
	ExitMethod         *string     `json:"exit-method"`
	GroupCodeID        *uint64     `json:"group-code-id"`
	GroupID            uint64      `json:"group-id"`
	GroupType          GroupType   `json:"group-type"`
	InvitationAccepted uint64      `json:"invitation-accepted"`
	InvitedByID        *uint64     `json:"invited-by-id"`
	IsAdmin            bool        `json:"is-admin"`
	LatestMessage      *string     `json:"latest-message"`
	NumUnreadMessages  uint64      `json:"num-unread-messages"`
	Primary            uint64      `json:"primary"`
	UpdatedAt          time.Time   `json:"updated-at"`
	UserID             uint64      `json:"user-id"`
}

func (*GroupUserAttributes) Kind() kind.Kind { return kind.GroupUser }

type LocationGroupAttributes struct {
	GroupID    uint64 `json:"group-id"`
	LocationID uint64 `json:"location-id"`
	Primary    bool   `json:"primary"`
}

func (*LocationGroupAttributes) Kind() kind.Kind { return kind.LocationGroup }

type ProjectChallengeAttributes struct {
	ChallengeID     uint64       `json:"challenge-id"`
	CurrentCount    uint64       `json:"current-count"`
	EndsAt          codec.Date   `json:"ends-at"`
	EventType       EventType    `json:"event-type"`
	Feeling         *string      `json:"feeling"`
	Goal            uint64       `json:"goal"`
	How             *string      `json:"how"`
	LastRecompute   time.Time    `json:"last-recompute"`
	Name            string       `json:"name"`
	ProjectID       uint64       `json:"project-id"`
	Speed           *string      `json:"speed"`
	StartCount      uint64       `json:"start-count"`
	StartsAt        codec.Date   `json:"starts-at"`
	Streak          uint64       `json:"streak"`
	UnitType        uint64       `json:"unit-type"`
	UserID          uint64       `json:"user-id"`
	When            *uint64      `json:"when"`
	WritingLocation *string      `json:"writing-location"`
	WritingType     *WritingType `json:"writing-type"`
}

func (*ProjectChallengeAttributes) Kind() kind.Kind { return kind.ProjectChallenge }

type UserBadgeAttributes struct {
	BadgeID            uint64    `json:"badge-id"`
	CreatedAt          time.Time `json:"created-at"`
	ProjectChallengeID uint64    `json:"project-challenge-id"`
	UserID             uint64    `json:"user-id"`
}

func (*UserBadgeAttributes) Kind() kind.Kind { return kind.UserBadge }

type ProjectSessionAttributes struct {
	Count              uint64     `json:"count"`
	CreatedAt          time.Time  `json:"created-at"`
	End                time.Time  `json:"end"`
	Feeling            *string    `json:"feeling"`
	How                *string    `json:"how"`
	ProjectChallengeID uint64     `json:"project-challenge-id"`
	ProjectID          uint64     `json:"project-id"`
	SessionDate        codec.Date `json:"session-date"`
	Start              *string    `json:"start"`
	UnitType           uint64     `json:"unit-type"`
	Where              *string    `json:"where"`
}

func (*ProjectSessionAttributes) Kind() kind.Kind { return kind.ProjectSession }
