package repository

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsFallbackEligible(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "mysql missing table",
			err:  errors.New("Error 1146 (42S02): Table 'evalia.credit_balance_summaries' doesn't exist"),
			want: true,
		},
		{
			name: "mysql missing function",
			err:  errors.New("Error 1305: FUNCTION evalia.remaining_credits does not exist"),
			want: true,
		},
		{
			name: "mysql permission denied",
			err:  errors.New("Error 1142 (42000): SELECT command denied to user 'evalia'@'%' for table 'credit_balance_summaries'"),
			want: true,
		},
		{
			name: "sqlite missing table",
			err:  errors.New("no such table: credit_balance_summaries"),
			want: true,
		},
		{
			name: "wrapped driver error",
			err:  fmt.Errorf("failed to query stats: %w", errors.New("no such table: credit_balance_summaries")),
			want: true,
		},
		{
			name: "deadlock is not eligible",
			err:  errors.New("Error 1213: Deadlock found when trying to get lock"),
			want: false,
		},
		{
			name: "lost connection is not eligible",
			err:  errors.New("driver: bad connection"),
			want: false,
		},
		{
			name: "generic error",
			err:  errors.New("something went wrong"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFallbackEligible(tt.err); got != tt.want {
				t.Errorf("IsFallbackEligible(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
