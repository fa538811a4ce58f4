package constants

import "time"

const (
	APP_NAME   = "twoblog"
	PUBLIC_URL = "http://localhost:6835"

	// config file base name, looked up in the working directory
	CONFIG_NAME = "twoblog"
	ENV_PREFIX  = "TWOBLOG"

	DEFAULT_PORT          = "6835"
	DEFAULT_DATABASE_PATH = "twoblog.db"
	DEFAULT_RECENT_COUNT  = 3
	DEFAULT_FEED_LIMIT    = 20
	TEASER_LENGTH         = 300
	DEFAULT_RATE_LIMIT    = 100
	SIGNIN_RATE_LIMIT     = 10
	MAX_POST_LENGTH       = 200_000
	MAX_COMMENT_LENGTH    = 5_000
	MAX_IMPORT_BYTES      = 10 << 20
	ANONYMOUS_AUTHOR      = "Anonymous"
	FLASH_TTL             = 2 * time.Second

	SESSION_COOKIE_NAME = "twoblog_session"
	FLASH_COOKIE_NAME   = "twoblog_flash"

	DEFAULT_EDITOR_FONT = "georgia"
	DEFAULT_EDITOR_SIZE = "medium"
)

var EDITOR_FONTS = []string{"georgia", "arial", "comic-sans", "courier-new", "helvetica", "lucida"}

var EDITOR_SIZES = []string{"extra-small", "small", "medium", "large"}
