// Package autoload registers all built-in channel factories via their
// init() side effects. Blank-import it from main.
package autoload

import (
	_ "valet/pkg/channels/telegram"
	_ "valet/pkg/channels/web"
)
