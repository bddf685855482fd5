package names

import "testing"

func TestInstanceNameStability(t *testing.T) {
	first := InstanceName("c1", "d0")
	second := InstanceName("c1", "d0")
	if first != second {
		t.Fatalf("instance name is not stable: %q != %q", first, second)
	}
	if InstanceName("c1", "d1") == first {
		t.Fatalf("different device ids produced the same instance name")
	}
}

func TestInstanceNameIgnoresProperties(t *testing.T) {
	// The hash must be derived only from the device id, never from
	// human-readable properties, or renaming a property would orphan
	// the Instance (spec §3 invariant). InstanceName takes no property
	// argument, so this checks that the configuration name and device id
	// alone fix the name.
	a := InstanceName("c1", "d0")
	b := InstanceName("c1", "d0")
	if a != b {
		t.Fatalf("instance name must not vary with anything but configuration name and device id")
	}
}

func TestSlotName(t *testing.T) {
	got := SlotName("c1-abcdef0123", 2)
	want := "c1-abcdef0123-2"
	if got != want {
		t.Fatalf("SlotName() = %q, want %q", got, want)
	}
}

func TestSanitizeDNSLabel(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"camera-1", false},
		{"Camera_1", true},
		{"valid-name", false},
		{"has a space", true},
	}
	for _, tc := range cases {
		_, err := SanitizeDNSLabel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("SanitizeDNSLabel(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
	}
}
