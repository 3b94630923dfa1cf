package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

func TestListQueryCriteria(t *testing.T) {
	query := domain.ListQuery{
		Criteria: []domain.Criterion{domain.ByUser("user-1"), domain.IncludeDeleted()},
		Limit:    10,
	}

	userID, ok := query.ForUser()
	if !ok || userID != "user-1" {
		t.Fatalf("ForUser = (%q, %v), want (user-1, true)", userID, ok)
	}
	if !query.WithDeleted() {
		t.Fatal("WithDeleted = false, want true")
	}
}

func TestListQueryEmptyCriteria(t *testing.T) {
	var query domain.ListQuery

	if _, ok := query.ForUser(); ok {
		t.Fatal("ForUser must report absence for empty criteria")
	}
	if query.WithDeleted() {
		t.Fatal("WithDeleted must default to false")
	}
}
