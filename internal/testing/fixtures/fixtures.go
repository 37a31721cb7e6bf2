// Package fixtures provides complete attribute objects for every resource
// kind the NaNoWriMo service sends, for use in tests.
package fixtures

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Omit removes a member when given as an override value
var Omit = omit{}

type omit struct{}

// complete holds an attribute object per wire type with every member present
var complete = map[string]string{
	"badges": `{"active":true,"adheres-to":"user","awarded":"You did it","awarded-description":"Wrote every day",
		"badge-type":"writing","description":"Write every day","generic-description":"Streak","list-order":3,
		"suborder":null,"title":"Streaker","unawarded":"Not yet","winner":false}`,
	"challenges": `{"default-goal":50000,"ends-at":"2020-11-30","event-type":0,"flexible-goal":false,
		"name":"NaNoWriMo 2020","prep-starts-at":"2020-10-01","starts-at":"2020-11-01","unit-type":0,"user-id":1,
		"win-allowed-at":"2020-11-20","writing-type":0}`,
	"favorite-authors": `{"name":"Ursula K. Le Guin","user-id":42}`,
	"favorite-books":   `{"name":"A Wizard of Earthsea","user-id":42}`,
	"genres":           `{"name":"Fantasy","user-id":42}`,
	"groups": `{"approved-by-id":0,"avatar":null,"cancelled-by-id":0,"created-at":"2019-01-02T03:04:05Z",
		"description":"Writers of the north","end-dt":null,"forum-link":null,"group-id":null,"group-type":"region",
		"joining-rule":null,"latitude":60.17,"longitude":24.94,"max-member-count":null,"member-count":120,
		"name":"Finland :: Helsinki","plate":null,"slug":"finland-helsinki","start-dt":null,
		"time-zone":"Europe/Helsinki","updated-at":"2020-01-02T03:04:05Z","url":null,"user-id":null}`,
	"group-external-links": `{"group-id":5,"label":"Forum","url":"https://example.org/forum"}`,
	"locations": `{"city":"Helsinki","country":"Finland","county":null,"formatted-address":"Central Library, Helsinki",
		"latitude":60.17,"longitude":24.94,"map-url":null,"municipality":null,"name":"Central Library",
		"neighborhood":null,"postal-code":"00100","state":"Uusimaa","street1":"Töölönlahdenkatu 4","street2":null,
		"utc-offset":2}`,
	"nanomessages": `{"content":"Welcome!","created-at":"2020-11-01T00:00:00Z","group-id":5,"official":true,
		"send-email":null,"sender-avatar-url":null,"sender-name":"HQ","sender-slug":"hq",
		"updated-at":"2020-11-01T00:00:00Z","user-id":1}`,
	"notifications": `{"action-id":null,"action-type":"BADGE","content":"You earned a badge",
		"created-at":"2020-11-02T10:00:00Z","data-count":null,"display-at":"2020-11-02T10:00:00Z",
		"display-status":1,"headline":"New badge","image-url":null,"last-viewed-at":null,"redirect-url":"/badges",
		"updated-at":"2020-11-02T10:00:00Z","user-id":42}`,
	"pages": `{"body":"<p>Hi</p>","url":"about","headline":"About","content-type":"Page","show-after":null,
		"promotional-card-image":null}`,
	"posts": `{"api-code":null,"body":"Pep talk","card-image":null,"content-type":"Pep Talk","expires-at":"2020-12-01",
		"external-link":null,"headline":"Keep going","offer-code":null,"order":2,"published":true,"subhead":null}`,
	"projects": `{"cover":null,"created-at":"2020-10-15T08:30:00Z","excerpt":null,"pinterest-url":null,
		"playlist-url":null,"primary":1,"privacy":2,"slug":"the-novel","status":"In Progress","summary":"A story",
		"title":"The Novel","unit-count":null,"unit-type":0,"user-id":42,"writing-type":0}`,
	"project-sessions": `{"count":1667,"created-at":"2020-11-01T21:00:00Z","end":"2020-11-01T21:00:00Z",
		"feeling":null,"how":null,"project-challenge-id":9,"project-id":7,"session-date":"2020-11-01","start":null,
		"unit-type":0,"where":null}`,
	"stopwatches": `{"start":"2020-11-01T20:00:00Z","stop":null}`,
	"timers":      `{"cancelled":false,"duration":25,"start":"2020-11-01T20:00:00Z"}`,
	"users":       userAttributes,
	"group-users": `{"created-at":"2019-01-02T03:04:05Z","entry-at":"2019-01-02T03:04:05Z","entry-method":"join",
		"exit-at":null,"exit-method":null,"group-code-id":null,"group-id":5,"group-type":"region",
		"invitation-accepted":0,"invited-by-id":null,"is-admin":false,"latest-message":null,
		"num-unread-messages":0,"primary":1,"updated-at":"2019-01-02T03:04:05Z","user-id":42}`,
	"location-groups": `{"group-id":5,"location-id":3,"primary":true}`,
	"project-challenges": `{"challenge-id":1,"current-count":1667,"ends-at":"2020-11-30","event-type":0,
		"feeling":null,"goal":50000,"how":null,"last-recompute":"2020-11-02T00:00:00Z","name":"NaNoWriMo 2020",
		"project-id":7,"speed":null,"start-count":0,"starts-at":"2020-11-01","streak":1,"unit-type":0,
		"user-id":42,"when":null,"writing-location":null,"writing-type":null}`,
	"user-badges": `{"badge-id":3,"created-at":"2020-11-02T10:00:00Z","project-challenge-id":9,"user-id":42}`,

	"child-posts":      genericAttributes,
	"child-post-posts": genericAttributes,
	"daily-aggregates": genericAttributes,
	"external-links":   genericAttributes,
	"post-pages":       genericAttributes,
}

const genericAttributes = `{"headline":"Anything","order":[1,2],"nested":{"ok":true}}`

const userAttributes = `{"admin-level":0,"avatar":null,"bio":"I write","confirmed-at":"2015-10-01T00:00:00Z",
	"created-at":"2015-10-01T00:00:00Z","discourse-username":null,"email":"writer@example.org",
	"email-blog-posts":true,"email-buddy-requests":true,"email-events-in-home-region":false,
	"email-nanomessages-buddies":true,"email-nanomessages-hq":true,"email-nanomessages-mls":false,
	"email-nanowrimo-updates":true,"email-newsletter":false,"email-writing-reminders":true,
	"halo":false,"laurels":4,"location":"Helsinki","name":"Writer","notifications-viewed-at":"2020-11-02T10:00:00Z",
	"plate":null,"postal-code":null,"registration-path":"web","setting-session-count-by-session":0,
	"setting-session-more-info":false,"slug":"writer",
	"stats-projects":5,"stats-projects-enabled":true,"stats-streak":12,"stats-streak-enabled":true,
	"stats-word-count":250000,"stats-word-count-enabled":true,"stats-wordiest":60000,"stats-wordiest-enabled":false,
	"stats-writing-pace":null,"stats-writing-pace-enabled":false,"stats-years-done":4,"stats-years-enabled":true,
	"stats-years-won":3,"time-zone":"Europe/Helsinki"}`

// Types returns the wire types that have a fixture, sorted
func Types() []string {
	types := make([]string, 0, len(complete))
	for typ := range complete {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// Attributes returns the complete attribute object of typ with overrides
// applied. A nil override sends null, Omit drops the member. It panics if
// typ has no fixture.
func Attributes(typ string, overrides map[string]any) string {
	base, ok := complete[typ]
	if !ok {
		panic(fmt.Sprintf("fixtures: no attributes for %q", typ))
	}
	if len(overrides) == 0 {
		return base
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal([]byte(base), &members); err != nil {
		panic(fmt.Sprintf("fixtures: %s: %v", typ, err))
	}
	for name, value := range overrides {
		if _, drop := value.(omit); drop {
			delete(members, name)
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			panic(fmt.Sprintf("fixtures: %s.%s: %v", typ, name, err))
		}
		members[name] = raw
	}

	out, err := json.Marshal(members)
	if err != nil {
		panic(fmt.Sprintf("fixtures: %s: %v", typ, err))
	}
	return string(out)
}
