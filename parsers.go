package main

import (
	// Payload parsers register themselves by format name.
	_ "github.com/rubiojr/gsuggest/pkg/parsers/firefox"
	_ "github.com/rubiojr/gsuggest/pkg/parsers/toolbar"
)
