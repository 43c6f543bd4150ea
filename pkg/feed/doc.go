// Package feed holds the post model, the JSON envelope the feed API wraps
// pages in, and the query builder that turns a page key into a feed request.
package feed
