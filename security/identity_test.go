package security

import "testing"

func TestValidateIdentity(t *testing.T) {
	tests := []struct {
		name     string
		identity *Identity
		want     bool
	}{
		{
			name:     "nil identity",
			identity: nil,
			want:     false,
		},
		{
			name:     "plain handle",
			identity: &Identity{ID: 1, Username: "alice_42"},
			want:     true,
		},
		{
			name:     "no username",
			identity: &Identity{ID: 2, FirstName: "Bob"},
			want:     true,
		},
		{
			name:     "automated actor",
			identity: &Identity{ID: 3, Username: "helper", IsBot: true},
			want:     false,
		},
		{
			name:     "spam and bot substrings",
			identity: &Identity{ID: 4, Username: "spambot123"},
			want:     false,
		},
		{
			name:     "case insensitive match",
			identity: &Identity{ID: 5, Username: "FreeGIFTS"},
			want:     false,
		},
		{
			name:     "scam substring",
			identity: &Identity{ID: 6, Username: "not_a_SCAMmer"},
			want:     false,
		},
		{
			name:     "premium substring",
			identity: &Identity{ID: 7, Username: "premium_deals"},
			want:     false,
		},
		{
			name:     "hack substring",
			identity: &Identity{ID: 8, Username: "growthhacker"},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateIdentity(tt.identity); got != tt.want {
				t.Errorf("ValidateIdentity() = %v, want %v", got, tt.want)
			}
		})
	}
}
