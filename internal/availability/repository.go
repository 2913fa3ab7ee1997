package availability

import "context"

// Repository contains the availability_settings queries.
type Repository interface {
	// ListRules returns every stored row ordered by weekday.
	ListRules(ctx context.Context) ([]Rule, error)
	// InsertRules writes all rules in one statement and returns the stored rows.
	InsertRules(ctx context.Context, rules []Rule) ([]Rule, error)
	// UpsertRules replaces the stored window for each rule's weekday.
	UpsertRules(ctx context.Context, rules []Rule) error
}
