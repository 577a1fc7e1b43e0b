package protocol

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantVerb string
		wantNoun string
		wantOK   bool
	}{
		{name: "verb only", line: "STAND", wantVerb: "STAND", wantOK: true},
		{name: "lowercase verb", line: "hit", wantVerb: "HIT", wantOK: true},
		{name: "verb with noun", line: "BET 100", wantVerb: "BET", wantNoun: "100", wantOK: true},
		{name: "noun keeps case", line: "register Alice Smith", wantVerb: "REGISTER", wantNoun: "Alice Smith", wantOK: true},
		{name: "noun keeps inner spaces", line: "SET spork TIMEOUT 2.5", wantVerb: "SET", wantNoun: "spork TIMEOUT 2.5", wantOK: true},
		{name: "empty line", line: "", wantOK: false},
		{name: "leading space", line: " BET 2", wantOK: false},
		{name: "punctuation verb", line: "!!! 2", wantOK: false},
		{name: "underscore verb", line: "MY_VERB", wantVerb: "MY_VERB", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verb, noun, ok := ParseCommand(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseCommand(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if verb != tt.wantVerb {
				t.Errorf("ParseCommand(%q) verb = %q, want %q", tt.line, verb, tt.wantVerb)
			}
			if noun != tt.wantNoun {
				t.Errorf("ParseCommand(%q) noun = %q, want %q", tt.line, noun, tt.wantNoun)
			}
		})
	}
}
