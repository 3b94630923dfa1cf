package postgres

import (
	"testing"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

func TestBuildListFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     domain.ListQuery
		wantWhere string
		wantArgs  int
	}{
		{
			name:      "default hides deleted",
			query:     domain.ListQuery{},
			wantWhere: " WHERE NOT is_deleted",
			wantArgs:  0,
		},
		{
			name:      "by user",
			query:     domain.ListQuery{Criteria: []domain.Criterion{domain.ByUser("user-1")}},
			wantWhere: " WHERE user_id = $1 AND NOT is_deleted",
			wantArgs:  1,
		},
		{
			name:      "with deleted",
			query:     domain.ListQuery{Criteria: []domain.Criterion{domain.IncludeDeleted()}},
			wantWhere: "",
			wantArgs:  0,
		},
		{
			name: "by user with deleted",
			query: domain.ListQuery{Criteria: []domain.Criterion{
				domain.ByUser("user-1"),
				domain.IncludeDeleted(),
			}},
			wantWhere: " WHERE user_id = $1",
			wantArgs:  1,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			where, args := buildListFilter(tc.query)
			if where != tc.wantWhere {
				t.Fatalf("where = %q, want %q", where, tc.wantWhere)
			}
			if len(args) != tc.wantArgs {
				t.Fatalf("args = %d, want %d", len(args), tc.wantArgs)
			}
		})
	}
}
