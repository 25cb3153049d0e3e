// internal/content/model.go
//
// Channel (node) and content row models.
//
// Schema reference
//
//	CREATE TABLE channel (
//	    id          INT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    site_id     INT UNSIGNED NOT NULL,
//	    parent_id   INT UNSIGNED NOT NULL DEFAULT 0,
//	    name        VARCHAR(255) NOT NULL,
//	    index_name  VARCHAR(255) NOT NULL DEFAULT '',
//	    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
//	);
//
//	CREATE TABLE content (
//	    id          INT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    site_id     INT UNSIGNED NOT NULL,
//	    channel_id  INT UNSIGNED NOT NULL,
//	    title       VARCHAR(255) NOT NULL,
//	    body        MEDIUMTEXT   NOT NULL,
//	    checked     TINYINT(1)   NOT NULL DEFAULT 0,
//	    added_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
//	);
package content

import "time"

// Node mirrors one row in `channel`.
type Node struct {
	ID        int       `db:"id"`
	SiteID    int       `db:"site_id"`
	ParentID  int       `db:"parent_id"`
	Name      string    `db:"name"`
	IndexName string    `db:"index_name"`
	CreatedAt time.Time `db:"created_at"`
}

// Item mirrors one row in `content`.
type Item struct {
	ID        int       `db:"id"`
	SiteID    int       `db:"site_id"`
	ChannelID int       `db:"channel_id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Checked   bool      `db:"checked"`
	AddedAt   time.Time `db:"added_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
