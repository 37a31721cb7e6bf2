package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/nanowrimo/internal/testing/fixtures"
	"github.com/conduit-lang/nanowrimo/pkg/nano/fault"
	"github.com/conduit-lang/nanowrimo/pkg/nano/kind"
)

func TestResource_RoundTripEveryKind(t *testing.T) {
	for _, k := range kind.All() {
		assert.Contains(t, fixtures.Types(), k.Plural(), "no fixture for %s", k)
	}

	for _, typ := range fixtures.Types() {
		t.Run(typ, func(t *testing.T) {
			raw := resourceJSON(typ, 11, fixtures.Attributes(typ, nil))

			var res Resource
			require.NoError(t, json.Unmarshal([]byte(raw), &res))

			want, err := kind.Resolve(typ)
			require.NoError(t, err)
			assert.Equal(t, want, res.Kind)
			assert.Equal(t, uint64(11), res.ID)
			assert.Equal(t, want, res.Attributes.Kind())

			out, err := json.Marshal(res)
			require.NoError(t, err)
			assert.JSONEq(t, raw, string(out))
		})
	}
}

func TestResource_DecodesTypedFields(t *testing.T) {
	var res Resource
	require.NoError(t, json.Unmarshal([]byte(resourceJSON("timers", 3, fixtures.Attributes("timers", nil))), &res))

	timer, err := AttributesAs[*TimerAttributes](&res)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Minute, timer.Duration.Duration)
	assert.Equal(t, time.Date(2020, 11, 1, 20, 0, 0, 0, time.UTC), timer.Start.UTC())

	require.NoError(t, json.Unmarshal([]byte(resourceJSON("projects", 7, fixtures.Attributes("projects", nil))), &res))
	project, err := AttributesAs[*ProjectAttributes](&res)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, project.Status)
	assert.Equal(t, PrivacyAnyone, project.Privacy)
	assert.Nil(t, project.Cover)
	require.NotNil(t, project.Summary)
	assert.Equal(t, "A story", *project.Summary)

	require.NoError(t, json.Unmarshal([]byte(resourceJSON("users", 42, fixtures.Attributes("users", nil))), &res))
	user, err := AttributesAs[*UserAttributes](&res)
	require.NoError(t, err)
	require.NotNil(t, user.EmailSettings)
	assert.True(t, user.EmailSettings.BlogPosts)
	assert.Nil(t, user.NotificationSettings)
	assert.Nil(t, user.PrivacySettings)
	assert.Equal(t, uint64(12), user.Streak)
}

func TestResource_RequiredMembers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"missing id", `{"type":"genres","attributes":{},"links":{"self":"x"}}`, "missing id"},
		{"missing type", `{"id":"1","attributes":{},"links":{"self":"x"}}`, "missing type"},
		{"missing attributes", `{"id":"1","type":"genres","links":{"self":"x"}}`, "missing attributes"},
		{"null attributes", `{"id":"1","type":"genres","attributes":null,"links":{"self":"x"}}`, "missing attributes"},
		{"missing links", `{"id":"1","type":"genres","attributes":{}}`, "missing links"},
		{"missing self link", `{"id":"1","type":"genres","attributes":{},"links":{"related":"x"}}`, "missing self"},
		{"numeric id", `{"id":1,"type":"genres","attributes":{},"links":{"self":"x"}}`, "invalid id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res Resource
			err := json.Unmarshal([]byte(tt.raw), &res)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResource_RequiredAttributes(t *testing.T) {
	tests := []struct {
		name      string
		typ       string
		overrides map[string]any
		member    string
		null      bool
	}{
		{"missing time", "users", map[string]any{"confirmed-at": fixtures.Omit}, "confirmed-at", false},
		{"null time", "users", map[string]any{"confirmed-at": nil}, "confirmed-at", true},
		{"missing string", "users", map[string]any{"time-zone": fixtures.Omit}, "time-zone", false},
		{"missing bool", "users", map[string]any{"halo": fixtures.Omit}, "halo", false},
		{"null number", "users", map[string]any{"laurels": nil}, "laurels", true},
		{"missing embedded stats", "users", map[string]any{"stats-streak": fixtures.Omit}, "stats-streak", false},
		{"incomplete settings group", "users", map[string]any{"email-newsletter": fixtures.Omit}, "email-newsletter", false},
		{"missing enum", "projects", map[string]any{"status": fixtures.Omit}, "status", false},
		{"null date", "challenges", map[string]any{"starts-at": nil}, "starts-at", true},
		{"missing minutes", "timers", map[string]any{"duration": fixtures.Omit}, "duration", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := resourceJSON(tt.typ, 1, fixtures.Attributes(tt.typ, tt.overrides))

			_, err := DecodeItem([]byte(`{"data":`+raw+`}`), DecodeOptions{})
			require.Error(t, err)
			assert.True(t, fault.Is(err, fault.CategoryDecode))

			var missing *MissingAttributeError
			require.True(t, errors.As(err, &missing), "got %v", err)
			assert.Equal(t, tt.member, missing.Member)
			assert.Equal(t, tt.null, missing.Null)
		})
	}
}

func TestResource_OptionalAttributes(t *testing.T) {
	overrides := map[string]any{
		"avatar":             fixtures.Omit,
		"bio":                nil,
		"stats-writing-pace": fixtures.Omit,
	}
	for _, member := range []string{"email-blog-posts", "email-buddy-requests", "email-events-in-home-region",
		"email-nanomessages-buddies", "email-nanomessages-hq", "email-nanomessages-mls",
		"email-nanowrimo-updates", "email-newsletter", "email-writing-reminders"} {
		overrides[member] = fixtures.Omit
	}

	var res Resource
	require.NoError(t, json.Unmarshal([]byte(resourceJSON("users", 42, fixtures.Attributes("users", overrides))), &res))
	user, err := AttributesAs[*UserAttributes](&res)
	require.NoError(t, err)
	assert.Nil(t, user.Avatar)
	assert.Nil(t, user.Bio)
	assert.Nil(t, user.WritingPace)
	assert.Nil(t, user.EmailSettings)
}

func TestResource_InvalidEnumFails(t *testing.T) {
	attrs := `{"cover":null,"created-at":"2020-10-15T08:30:00Z","excerpt":null,"pinterest-url":null,
		"playlist-url":null,"primary":1,"privacy":7,"slug":"s","status":"In Progress","summary":null,
		"title":"T","unit-count":null,"unit-type":0,"user-id":42,"writing-type":0}`

	var res Resource
	err := json.Unmarshal([]byte(resourceJSON("projects", 7, attrs)), &res)
	require.Error(t, err)

	var enumErr *EnumError
	require.True(t, errors.As(err, &enumErr))
	assert.Equal(t, "privacy setting", enumErr.Enum)
}

func TestResource_UnknownKindIsStrictByDefault(t *testing.T) {
	var res Resource
	err := json.Unmarshal([]byte(resourceJSON("sprints", 1, `{"length":20}`)), &res)
	require.Error(t, err)

	var unknown *kind.UnknownKindError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "sprints", unknown.Name)
}

func TestResource_SingularTypeTagIsKept(t *testing.T) {
	raw := resourceJSON("genre", 2, fixtures.Attributes("genres", nil))

	var res Resource
	require.NoError(t, json.Unmarshal([]byte(raw), &res))
	assert.Equal(t, kind.Genre, res.Kind)
	assert.Equal(t, "genre", res.Type)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestResource_MarshalRejectsMismatchedAttributes(t *testing.T) {
	res := Resource{ID: 1, Kind: kind.User, Attributes: &GenreAttributes{Name: "x"}, Links: LinkSet{Self: "users/1"}}
	_, err := json.Marshal(res)
	require.Error(t, err)

	var mismatch *KindMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestResource_MarshalUsesPluralWhenTypeIsEmpty(t *testing.T) {
	res := Resource{ID: 5, Kind: kind.Genre, Attributes: &GenreAttributes{Name: "Horror", UserID: 1}, Links: LinkSet{Self: "genres/5"}}
	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"5","type":"genres","attributes":{"name":"Horror","user-id":1},"links":{"self":"genres/5"}}`, string(out))
}

func TestAttributesAs(t *testing.T) {
	var res Resource
	require.NoError(t, json.Unmarshal([]byte(resourceJSON("genres", 2, fixtures.Attributes("genres", nil))), &res))

	genre, err := AttributesAs[*GenreAttributes](&res)
	require.NoError(t, err)
	assert.Equal(t, "Fantasy", genre.Name)

	_, err = AttributesAs[*UserAttributes](&res)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.CategoryContract))

	var mismatch *KindMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, kind.User, mismatch.Expected)
	assert.Equal(t, kind.Genre, mismatch.Actual)

	_, err = AttributesAs[*GenreAttributes](nil)
	assert.True(t, fault.Is(err, fault.CategoryContract))
}

func TestRelationshipSet_Shapes(t *testing.T) {
	raw := `{
		"user": {"data": {"id": "42", "type": "users"}},
		"projects": {"data": [], "links": {"related": "users/42/projects"}},
		"genres": {"data": null, "links": {"self": "projects/7/relationships/genres", "related": "projects/7/genres"}},
		"challenges": {"links": {"related": "projects/7/challenges"}}
	}`

	var rels RelationshipSet
	require.NoError(t, json.Unmarshal([]byte(raw), &rels))

	assert.Equal(t, []ResourceRef{{ID: 42, Kind: kind.User}}, rels.Included[kind.User])
	assert.Equal(t, []ResourceRef{}, rels.Included[kind.Project])
	_, genresIncluded := rels.Included[kind.Genre]
	assert.False(t, genresIncluded)
	_, userLinked := rels.Relations[kind.User]
	assert.False(t, userLinked)

	link, ok := rels.Link(kind.Challenge)
	require.True(t, ok)
	assert.Equal(t, "projects/7/challenges", link.Related)

	out, err := json.Marshal(rels)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestRelationshipSet_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown relation name", `{"sprints": {"links": {"related": "x"}}}`},
		{"unknown ref type", `{"projects": {"data": [{"id": "7", "type": "sprints"}]}}`},
		{"ref without id", `{"projects": {"data": [{"type": "projects"}]}}`},
		{"links without related", `{"projects": {"links": {"self": "x"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rels RelationshipSet
			assert.Error(t, json.Unmarshal([]byte(tt.raw), &rels))
		})
	}
}

func TestRelationLink_Cardinality(t *testing.T) {
	tests := []struct {
		related string
		want    Cardinality
	}{
		{"users/42/projects", Many},
		{"https://api.nanowrimo.org/users/42/projects", Many},
		{"users/42/projects/", Many},
		{"users/42/projects?page=2", Many},
		{"projects/7/user", One},
		{"projects/7/user?include=genres", One},
		{"project-challenges/9/challenge", One},
	}
	for _, tt := range tests {
		t.Run(tt.related, func(t *testing.T) {
			assert.Equal(t, tt.want, RelationLink{Related: tt.related}.Cardinality())
		})
	}
}

func TestLinkSet(t *testing.T) {
	var links LinkSet
	require.NoError(t, json.Unmarshal([]byte(`{"self":"users/42","avatar":"https://cdn/a.png"}`), &links))
	assert.Equal(t, "users/42", links.Self)
	assert.Equal(t, map[string]string{"avatar": "https://cdn/a.png"}, links.Others)

	out, err := json.Marshal(links)
	require.NoError(t, err)
	assert.JSONEq(t, `{"self":"users/42","avatar":"https://cdn/a.png"}`, string(out))
}
