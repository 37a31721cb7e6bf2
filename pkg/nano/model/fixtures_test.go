package model

import (
	"fmt"

	"github.com/conduit-lang/nanowrimo/internal/testing/fixtures"
)

// resourceJSON wraps attrs in a minimal resource object
func resourceJSON(typ string, id uint64, attrs string) string {
	return fmt.Sprintf(`{"id":"%d","type":%q,"attributes":%s,"links":{"self":"%s/%d"}}`, id, typ, attrs, typ, id)
}

// userWithProjectJSON is a user response that side-loads one of its projects
var userWithProjectJSON = `{
	"data": {
		"id": "42",
		"type": "users",
		"attributes": ` + fixtures.Attributes("users", nil) + `,
		"relationships": {
			"projects": {
				"data": [{"id": "7", "type": "projects"}],
				"links": {"self": "users/42/relationships/projects", "related": "users/42/projects"}
			}
		},
		"links": {"self": "users/42"}
	},
	"included": [` + resourceJSON("projects", 7, fixtures.Attributes("projects", nil)) + `]
}`
