// Package api serves the fund holdings JSON API.
//
// Every data route goes through the request gate under a normalized cache
// key, so rate limiting, caching and static fallback behave the same on
// all of them:
//
//	GET /api/search?q=&fund=            search:<q>[:FUND]
//	GET /api/funds                      funds
//	GET /api/holdings/{fund}/top?limit= top:<FUND>:<n>
//	GET /api/stock/{ticker}/funds       stock:<TICKER>
//	GET /api/stats                      stats
//
// Unmetered routes:
//
//	GET /api/health              static liveness answer
//	GET /api/usage               limiter, cache and service level report
//	GET /static/cache/{key}      raw pre-generated snapshot
//
// Gated responses carry X-Cache-Source (cache, live or static),
// X-Service-Level and the X-RateLimit-* headers of the caller's most
// constrained tier. Denials are 429 with Retry-After.
package api
