package mail

import (
	"reflect"
	"testing"
)

func TestExtractAddress(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"user@example.com", "user@example.com"},
		{"Name <user@example.com>", "user@example.com"},
		{"<user@example.com>", "user@example.com"},
		{"", ""},
	}
	for _, c := range cases {
		if got := extractAddress(c.in); got != c.want {
			t.Errorf("extractAddress(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCollectRecipients(t *testing.T) {
	got := CollectRecipients(
		[]string{"Alice <a@example.com>", "b@example.com"},
		[]string{"a@example.com"},
		[]string{"C <c@example.com>"},
	)
	want := []string{"a@example.com", "b@example.com", "c@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectRecipients = %v, want %v", got, want)
	}
}

func TestCollectRecipientsEmpty(t *testing.T) {
	if got := CollectRecipients(nil, nil, nil); got != nil {
		t.Errorf("expected nil for no recipients, got %v", got)
	}
}
