package db

import _ "embed"

//go:embed schema.sql
var Schema string

// DefaultCountry is stored for users whose profile has not been looked at.
const DefaultCountry = "Unknown"

// NewUserAlias stands in for users the listings do not name.
const NewUserAlias = "New User"
