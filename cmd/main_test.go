package main

import (
	"strings"
	"testing"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
)

func TestDateRange(t *testing.T) {
	got, err := dateRange("2024-02-28", "2024-03-02")
	if err != nil {
		t.Fatalf("dateRange: %v", err)
	}
	if strings.Join(got, ",") != "2024-02-28,2024-02-29,2024-03-01,2024-03-02" {
		t.Fatalf("range: %v", got)
	}
	if got, _ := dateRange("2024-03-04", ""); len(got) != 1 || got[0] != "2024-03-04" {
		t.Fatalf("single day: %v", got)
	}
	if _, err := dateRange("2024-03-04", "2024-03-01"); err == nil {
		t.Fatalf("want reversed range error")
	}
}

func TestParseHouses(t *testing.T) {
	hs, err := parseHouses("both")
	if err != nil || len(hs) != 2 {
		t.Fatalf("both: %v %v", hs, err)
	}
	hs, err = parseHouses("Lords")
	if err != nil || len(hs) != 1 || hs[0] != debates.HouseLords {
		t.Fatalf("lords: %v %v", hs, err)
	}
	if _, err := parseHouses("senate"); err == nil {
		t.Fatalf("want invalid house error")
	}
}

func TestIDListSplitsCommas(t *testing.T) {
	var l idList
	_ = l.Set("a, b")
	_ = l.Set("c")
	if l.String() != "a,b,c" {
		t.Fatalf("ids: %v", l)
	}
}
