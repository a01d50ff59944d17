package domain

import "testing"

func TestValidTxHash(t *testing.T) {
	valid := "0x" + "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12"
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"canonical", valid, true},
		{"uppercase hex", "0xAB12CD34EF56AB12CD34EF56AB12CD34EF56AB12CD34EF56AB12CD34EF56AB12", true},
		{"missing prefix", valid[2:], false},
		{"too short", valid[:65], false},
		{"too long", valid + "0", false},
		{"non-hex", "0x" + "zz12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12", false},
		{"empty", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidTxHash(tc.in); got != tc.want {
				t.Fatalf("ValidTxHash(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestValidDocumentRef(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"receipts/2025/invoice-4411.pdf", true},
		{"https://docs.example.org/quote.PDF", true},
		{"scan.jpeg", true},
		{"photo.jpg", true},
		{"screenshot.png", true},
		{"notes.txt", false},
		{"archive.zip", false},
		{"  ", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := ValidDocumentRef(tc.in); got != tc.want {
			t.Fatalf("ValidDocumentRef(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidID(t *testing.T) {
	if !ValidID("7c9a2e3f-54d1-4f7a-9b6e-2f1c8d0a5b43") {
		t.Fatal("canonical uuid rejected")
	}
	for _, in := range []string{"", "not-a-uuid", "7c9a2e3f54d14f7a9b6e2f1c8d0a5b43", "urn:uuid:7c9a2e3f-54d1-4f7a-9b6e-2f1c8d0a5b43"} {
		if ValidID(in) {
			t.Fatalf("ValidID(%q) = true, want false", in)
		}
	}
}
