package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mark3labs/swagger2client/internal/spec"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		op   spec.Operation
		want Result
	}{
		{
			name: "grouped identifier",
			op:   spec.Operation{ID: "PrivateClouds_CreateOrUpdate", Method: spec.GET, Path: "/horse"},
			want: Result{Module: "private_clouds", Function: "create_or_update"},
		},
		{
			name: "missing identifier",
			op:   spec.Operation{Method: spec.GET, Path: "/horse"},
			want: Result{Function: "get_horse"},
		},
		{
			name: "identifier without separator",
			op:   spec.Operation{ID: "PerformConnectivityCheck", Method: spec.PUT, Path: "/horse"},
			want: Result{Function: "perform_connectivity_check"},
		},
		{
			name: "fallback keeps placeholders",
			op:   spec.Operation{Method: spec.DELETE, Path: "/clouds/{name}/"},
			want: Result{Function: "delete_clouds_{name}"},
		},
		{
			name: "identifier normalizes to nothing",
			op:   spec.Operation{ID: "   ", Method: spec.POST, Path: "/a/b"},
			want: Result{Function: "post_a_b"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Resolve(&tc.op)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.Module != "", got.HasModule())
			// Resolving again yields the same names.
			assert.Equal(t, got, Resolve(&tc.op))
		})
	}
}
