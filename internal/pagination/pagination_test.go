package pagination

import (
	"net/url"
	"testing"
)

func TestFromQuery_Defaults(t *testing.T) {
	p, err := FromQuery(url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != 10 || p.Offset != 0 {
		t.Fatalf("defaults = %+v, want limit=10 offset=0", p)
	}
}

func TestFromQuery_Bounds(t *testing.T) {
	cases := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"limit at max", "limit=50", false},
		{"limit over max", "limit=51", true},
		{"limit zero", "limit=0", true},
		{"limit garbage", "limit=abc", true},
		{"negative offset", "offset=-1", true},
		{"valid offset", "offset=20", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q, _ := url.ParseQuery(c.query)
			_, err := FromQuery(q)
			if (err != nil) != c.wantErr {
				t.Fatalf("FromQuery(%q) err = %v, wantErr=%v", c.query, err, c.wantErr)
			}
		})
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	got := Slice(items, Params{Limit: 2, Offset: 0})
	if len(got) != 2 || got[0] != 1 {
		t.Fatalf("first page = %v", got)
	}

	got = Slice(items, Params{Limit: 2, Offset: 4})
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("last page = %v", got)
	}

	got = Slice(items, Params{Limit: 10, Offset: 99})
	if len(got) != 0 {
		t.Fatalf("out-of-range page = %v, want empty", got)
	}
}
