package mysql

import _ "embed"

//go:embed schema.sql
var schema string

var dropSQL = []string{
	"DROP TABLE IF EXISTS business_stats",
	"DROP TABLE IF EXISTS reviews",
	"DROP TABLE IF EXISTS businesses",
}

// A placeholder name (equal to the slug) never overwrites a real one.
const upsertBusinessSQL = `
INSERT INTO businesses
  (slug, name, industry_name, industry_slug)
VALUES
  (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name          = IF(VALUES(name) = VALUES(slug), businesses.name, VALUES(name)),
  industry_name = COALESCE(VALUES(industry_name), businesses.industry_name),
  industry_slug = COALESCE(VALUES(industry_slug), businesses.industry_slug),
  updated_at    = CURRENT_TIMESTAMP
`

const insertReviewsPrefix = "INSERT INTO reviews\n" +
	"  (business_slug, review_id, user_id, author, author_display_name, author_id, title, rating, content,\n" +
	"   created_at, permalink, replied, nps_rating, source, is_reported, author_created_date, author_total_reviews, raw)\n" +
	"VALUES "

// Use VALUES(col) for broad compatibility; a forced refresh overwrites edited reviews.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  user_id              = VALUES(user_id),\n" +
	"  author               = VALUES(author),\n" +
	"  author_display_name  = VALUES(author_display_name),\n" +
	"  author_id            = VALUES(author_id),\n" +
	"  title                = VALUES(title),\n" +
	"  rating               = VALUES(rating),\n" +
	"  content              = VALUES(content),\n" +
	"  created_at           = VALUES(created_at),\n" +
	"  permalink            = VALUES(permalink),\n" +
	"  replied              = VALUES(replied),\n" +
	"  nps_rating           = VALUES(nps_rating),\n" +
	"  source               = VALUES(source),\n" +
	"  is_reported          = VALUES(is_reported),\n" +
	"  author_created_date  = VALUES(author_created_date),\n" +
	"  author_total_reviews = VALUES(author_total_reviews),\n" +
	"  raw                  = COALESCE(VALUES(raw), reviews.raw)\n"
