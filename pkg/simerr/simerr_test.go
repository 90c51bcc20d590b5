package simerr

import "testing"

func TestErrorMessagesIncludeContext(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "ConfigurationError",
			err:  &ConfigurationError{Component: "engine", Field: "controllers.hvac1.auction", Reason: "references unknown auction retail"},
			want: "engine: invalid controllers.hvac1.auction: references unknown auction retail",
		},
		{
			name: "RuntimeInvariant",
			err:  &RuntimeInvariant{Component: "auction:retail", Detail: "ring overflow"},
			want: "invariant violated in auction:retail: ring overflow",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}
