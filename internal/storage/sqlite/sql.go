package sqlite

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
ON CONFLICT (slug) DO UPDATE SET
  name          = CASE WHEN excluded.name = excluded.slug THEN businesses.name ELSE excluded.name END,
  industry_name = COALESCE(excluded.industry_name, businesses.industry_name),
  industry_slug = COALESCE(excluded.industry_slug, businesses.industry_slug),
  updated_at    = CURRENT_TIMESTAMP
`

const insertReviewsPrefix = "INSERT INTO reviews\n" +
	"  (business_slug, review_id, user_id, author, author_display_name, author_id, title, rating, content,\n" +
	"   created_at, permalink, replied, nps_rating, source, is_reported, author_created_date, author_total_reviews, raw)\n" +
	"VALUES "

// A forced refresh overwrites edited reviews.
const insertReviewsOnConflict = " ON CONFLICT (business_slug, review_id) DO UPDATE SET\n" +
	"  user_id              = excluded.user_id,\n" +
	"  author               = excluded.author,\n" +
	"  author_display_name  = excluded.author_display_name,\n" +
	"  author_id            = excluded.author_id,\n" +
	"  title                = excluded.title,\n" +
	"  rating               = excluded.rating,\n" +
	"  content              = excluded.content,\n" +
	"  created_at           = excluded.created_at,\n" +
	"  permalink            = excluded.permalink,\n" +
	"  replied              = excluded.replied,\n" +
	"  nps_rating           = excluded.nps_rating,\n" +
	"  source               = excluded.source,\n" +
	"  is_reported          = excluded.is_reported,\n" +
	"  author_created_date  = excluded.author_created_date,\n" +
	"  author_total_reviews = excluded.author_total_reviews,\n" +
	"  raw                  = COALESCE(excluded.raw, reviews.raw),\n" +
	"  synced_at            = CURRENT_TIMESTAMP\n"
