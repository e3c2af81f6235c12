// Package js embeds the scripts the drivers evaluate in pages.
package js

import (
	_ "embed"
)

// SeedSessionScript stores a login token and user id in local storage, where
// the shop's front end looks for them. It takes {token, userId}.
//
//go:embed seed_session.js
var SeedSessionScript string

// OriginSnapshotScript is an expression returning the current origin and its
// local storage entries as JSON. Opaque origins such as about:blank deny
// storage access and report origin "null" with no entries.
//
//go:embed origin_snapshot.js
var OriginSnapshotScript string
