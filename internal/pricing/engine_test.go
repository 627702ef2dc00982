package pricing

import "testing"

func TestComputeSkipsNonPositiveQty(t *testing.T) {
	summary := Compute([]Item{
		{Qty: 3, UnitPrice: 29999},
		{Qty: 0, UnitPrice: 1000},
		{Qty: -2, UnitPrice: 1000},
		{Qty: 1, UnitPrice: 19999},
	})
	if summary.Subtotal != 109996 {
		t.Fatalf("expected subtotal 109996, got %d", summary.Subtotal)
	}
	if summary.Units != 4 {
		t.Fatalf("expected 4 units, got %d", summary.Units)
	}
}

func TestFormat(t *testing.T) {
	cases := map[Money]string{
		0:     "0.00",
		5:     "0.05",
		89997: "899.97",
		19999: "199.99",
		-150:  "-1.50",
	}
	for in, want := range cases {
		if got := Format(in); got != want {
			t.Fatalf("Format(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	cases := map[string]Money{
		"299.99": 29999,
		"12":     1200,
		"0.5":    50,
		".75":    75,
		"-3.10":  -310,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %d, want %d", in, got, want)
		}
	}
	for _, bad := range []string{
		"", "-", ".", "1.234", "abc", "1.",
		"1.-5", "1.+5", "--5", "+5", "-+5", "1.5-", "1 .50", "1_000", "0x10",
		"92233720368547758.08", "99999999999999999999",
	} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
