package sqlstore

// Statements below are portable between MySQL and SQLite.

const knownReviewIDsSQL = `SELECT review_id FROM reviews WHERE business_slug = ?`

const insertStatsSQL = `
INSERT INTO business_stats
  (business_slug, fetched_at, total_reviews, average_rating, trust_index,
   rating_1, rating_2, rating_3, rating_4, rating_5,
   industry_id, industry_ranking, review_count_total, avg_response_time, response_rate, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getBusinessSQL = `
SELECT slug, name, industry_name, industry_slug
FROM businesses
WHERE slug = ?
`

const listBusinessesSQL = `
SELECT slug, name, industry_name, industry_slug
FROM businesses
ORDER BY slug
LIMIT ?
`

// ORDER BY and LIMIT are appended by the repo.
const listReviewsSQL = `
SELECT
  business_slug,
  review_id,
  user_id,
  author,
  author_display_name,
  author_id,
  title,
  rating,
  content,
  created_at,
  permalink,
  replied,
  nps_rating,
  source,
  is_reported,
  author_created_date,
  author_total_reviews,
  raw
FROM reviews
WHERE business_slug = ?
ORDER BY `

const latestStatsSQL = `
SELECT
  business_slug, fetched_at, total_reviews, average_rating, trust_index,
  rating_1, rating_2, rating_3, rating_4, rating_5,
  industry_id, industry_ranking, review_count_total, avg_response_time, response_rate, raw
FROM business_stats
WHERE business_slug = ?
ORDER BY fetched_at DESC, id DESC
LIMIT 1
`
