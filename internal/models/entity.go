package models

import (
	"fmt"
	"strings"
)

// Kind names an entity type handled by the sync
type Kind string

const (
	KindLeague Kind = "league"
	KindTeam   Kind = "team"
)

// Policy is the missing-field and coercion rule applied to one projected field
type Policy int

const (
	// PolicyPassthrough keeps the source value as-is; absent becomes nil
	PolicyPassthrough Policy = iota
	// PolicyRequiredInt demands a value coercible to an integer
	PolicyRequiredInt
	// PolicyIntOrZero coerces to an integer, absent or empty becomes 0
	PolicyIntOrZero
)

// String returns the policy name
func (p Policy) String() string {
	switch p {
	case PolicyPassthrough:
		return "passthrough"
	case PolicyRequiredInt:
		return "required-int"
	case PolicyIntOrZero:
		return "int-or-zero"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// FieldSpec projects one external field into one store column
type FieldSpec struct {
	Source string // field name in the API payload
	Target string // column name in the store
	Policy Policy
}

// Entity describes everything the pipeline needs to sync one entity type:
// where to fetch it, which collection holds it, how each field is coerced and
// renamed, and which table receives it.
type Entity struct {
	Kind       Kind
	Collection string // top-level key of the API response
	Path       string // relative to the API base URL, may contain format verbs
	Table      string
	Fields     []FieldSpec
}

// URL builds the request URL for this entity against base
func (e Entity) URL(base string, args ...any) string {
	path := e.Path
	if len(args) > 0 {
		path = fmt.Sprintf(path, args...)
	}
	return strings.TrimRight(base, "/") + "/" + path
}

// Renames returns the external-to-internal field name table
func (e Entity) Renames() map[string]string {
	renames := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		renames[f.Source] = f.Target
	}
	return renames
}

// Columns returns the store columns in field order
func (e Entity) Columns() []string {
	columns := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		columns[i] = f.Target
	}
	return columns
}

// Leagues is the league collection of TheSportsDB, stored in api_leagues
var Leagues = Entity{
	Kind:       KindLeague,
	Collection: "leagues",
	Path:       "all_leagues.php",
	Table:      "api_leagues",
	Fields: []FieldSpec{
		{Source: "idLeague", Target: "league_id", Policy: PolicyRequiredInt},
		{Source: "strLeague", Target: "league_name", Policy: PolicyPassthrough},
		{Source: "strSport", Target: "league_sport", Policy: PolicyPassthrough},
	},
}

// Teams is the per-league team collection, stored in api_assets.
// Path takes the league id.
var Teams = Entity{
	Kind:       KindTeam,
	Collection: "teams",
	Path:       "lookup_all_teams.php?id=%d",
	Table:      "api_assets",
	Fields: []FieldSpec{
		{Source: "idTeam", Target: "team_id", Policy: PolicyIntOrZero},
		{Source: "idLeague", Target: "league_id", Policy: PolicyIntOrZero},
		{Source: "strTeam", Target: "team_name", Policy: PolicyPassthrough},
		{Source: "strTeamShort", Target: "team_short", Policy: PolicyPassthrough},
		{Source: "intFormedYear", Target: "team_year_formed", Policy: PolicyIntOrZero},
		{Source: "strStadiumDescription", Target: "team_stadium_description", Policy: PolicyPassthrough},
		{Source: "intStadiumCapacity", Target: "team_stadium_capacity", Policy: PolicyPassthrough},
		{Source: "strWebsite", Target: "team_website", Policy: PolicyPassthrough},
		{Source: "strDescriptionEN", Target: "team_description", Policy: PolicyPassthrough},
	},
}
