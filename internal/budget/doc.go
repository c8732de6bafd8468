// Package budget stores spending limits per provider.
//
// A budget is keyed by provider (aws, azure, gcp or total); setting a budget
// replaces the previous one for that provider. Two backends implement Store:
// FileStore writes a JSON document of the form {"budgets": [...]} and
// BoltStore keeps each budget under its own key in a bbolt bucket.
package budget
